package ports

import "github.com/eleven-am/panther/internal/domain"

// GraphView is the presentation layer the orchestrator drives. The orchestrator only
// signals; fading, layout and panel rendering belong to the implementation.
type GraphView interface {
	// MarkSelected selects node; the view fades out every other node as a side effect.
	MarkSelected(node domain.NodeRef)
	RepositionSelectedToCenter()
	RevealArtistData(node domain.NodeRef, data *domain.ArtistData)
}
