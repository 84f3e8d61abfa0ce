package journal

import (
	"fmt"

	"github.com/google/uuid"
)

// GroupState is shared by every entry recorded for the same page. Fragment
// and custom-state navigations inside one page produce several entries but
// a single group.
type GroupState struct {
	navigationServiceID uuid.UUID
	contentID           uint32

	// FormState is the saved state of the page's controls, if any.
	FormState []byte

	exit *Entry
}

// NewGroupState creates a group for content shown by the given service.
// A zero contentID may be set later with SetContentID.
func NewGroupState(serviceID uuid.UUID, contentID uint32) *GroupState {
	return &GroupState{navigationServiceID: serviceID, contentID: contentID}
}

// NavigationServiceID identifies the window or frame the page was shown in.
func (g *GroupState) NavigationServiceID() uuid.UUID {
	return g.navigationServiceID
}

// ContentID returns the id of the page's content root, or 0 if unset.
func (g *GroupState) ContentID() uint32 {
	return g.contentID
}

// SetContentID assigns the content id. Once non-zero it cannot change.
func (g *GroupState) SetContentID(id uint32) error {
	if g.contentID != 0 && g.contentID != id {
		return fmt.Errorf("%w: have %d, got %d", ErrContentIDImmutable, g.contentID, id)
	}
	g.contentID = id
	return nil
}

// ExitEntry returns the entry through which the page is left, or nil.
func (g *GroupState) ExitEntry() *Entry {
	return g.exit
}
