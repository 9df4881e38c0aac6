package identity

import (
	"encoding/json"
	"os"

	"github.com/wildtrack/ornitela-ingest/pkg/file"
)

// Integration holds the integration's unique identifier and other metadata.
// The ID scopes every lock key and state key this agent touches.
type Integration struct {
	ID       string          `json:"integration_id,omitempty"`
	Name     string          `json:"integration_name,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// IntegrationInfoInterface defines methods for managing the integration identity.
type IntegrationInfoInterface interface {
	LoadIntegrationInfo() error
	GetIntegrationID() string
	GetIntegration() *Integration
}

// IntegrationInfo manages the integration identity and its backing file.
type IntegrationInfo struct {
	IntegrationFile string
	Integration     Integration
	fileOps         file.FileOperations
}

// NewIntegrationInfo initializes a new IntegrationInfo instance.
func NewIntegrationInfo(filePath string, fileOps file.FileOperations) IntegrationInfoInterface {
	return &IntegrationInfo{
		IntegrationFile: filePath,
		fileOps:         fileOps,
		Integration:     Integration{},
	}
}

// LoadIntegrationInfo reads the identity file and populates the Integration field.
func (i *IntegrationInfo) LoadIntegrationInfo() error {
	err := i.fileOps.ReadJsonFile(i.IntegrationFile, &i.Integration)
	if err != nil {
		if os.IsNotExist(err) {
			i.Integration = Integration{}
			return nil
		}
		return err
	}
	return nil
}

// GetIntegration returns the current Integration.
func (i *IntegrationInfo) GetIntegration() *Integration {
	return &i.Integration
}

// GetIntegrationID returns the current integration ID.
func (i *IntegrationInfo) GetIntegrationID() string {
	return i.Integration.ID
}
