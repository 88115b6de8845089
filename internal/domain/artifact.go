package domain

import "time"

// ArtifactID is the random identifier of a temp artifact allocation.
type ArtifactID string

// String returns the string representation of the ArtifactID.
func (id ArtifactID) String() string {
	return string(id)
}

// ArtifactState is the lifecycle state of a temp artifact.
type ArtifactState string

const (
	ArtifactAllocated ArtifactState = "allocated"
	ArtifactResolved  ArtifactState = "resolved"
	ArtifactReleased  ArtifactState = "released"
)

// Allocation is the journal record of an in-flight artifact.
type Allocation struct {
	ID        ArtifactID
	BasePath  string
	CreatedAt time.Time
}
