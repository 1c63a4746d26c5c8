package programs

import (
	"strings"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
)

// FileManager is the desktop's file browser item.
type FileManager struct {
	id      uuid.UUID
	listing resource.Response
}

// NewFileManager creates a file manager with a fresh instance ID.
func NewFileManager() *FileManager {
	return &FileManager{id: uuid.New()}
}

func (f *FileManager) Name() string { return "file_manager" }

func (f *FileManager) Capabilities() capability.Set {
	return capability.Set{capability.FileManager}
}

// ID returns the instance ID.
func (f *FileManager) ID() uuid.UUID { return f.id }

// Show replaces the displayed directory listing.
func (f *FileManager) Show(listing resource.Response) {
	f.listing = listing
}

// Entries returns the names in the current listing, one per line of the
// payload.
func (f *FileManager) Entries() []string {
	text := strings.TrimSpace(f.listing.Text())
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Location returns the identifier of the current listing.
func (f *FileManager) Location() resource.URL {
	return f.listing.URL
}
