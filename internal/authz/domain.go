package authz

import "github.com/google/uuid"

// Resource type discriminators used for override records and directory
// lookups.
const (
	ResourceTypeProgram     = "program"
	ResourceTypeProject     = "project"
	ResourceTypeChannel     = "channel"
	ResourceTypeEvent       = "event"
	ResourceTypeLibraryItem = "library_item"
)

// ChannelVisibility is the closed enumeration of channel access levels.
// Values outside the set fail closed to deny.
type ChannelVisibility string

const (
	ChannelPublic      ChannelVisibility = "public"
	ChannelMembers     ChannelVisibility = "members"
	ChannelProgramOnly ChannelVisibility = "program_only"
)

// EventVisibility is the closed enumeration of event access levels.
type EventVisibility string

const (
	EventPublic      EventVisibility = "public"
	EventMembers     EventVisibility = "members"
	EventProgramOnly EventVisibility = "program_only"
	EventCohortOnly  EventVisibility = "cohort_only"
)

// LibraryAccess is the closed enumeration of library item access levels.
type LibraryAccess string

const (
	LibraryPublic         LibraryAccess = "public"
	LibraryMembers        LibraryAccess = "members"
	LibraryProgramMembers LibraryAccess = "program_members"
	LibraryCohortMembers  LibraryAccess = "cohort_members"
)

// Program is the authorization-relevant snapshot of a program.
type Program struct {
	ID       uuid.UUID
	IsPublic bool
}

// Project is the authorization-relevant snapshot of a project.
type Project struct {
	ID     uuid.UUID
	Status string
}

// Channel is the authorization-relevant snapshot of a community channel.
// ProgramID is uuid.Nil when the channel is not scoped to a program.
type Channel struct {
	ID         uuid.UUID
	Visibility ChannelVisibility
	IsReadOnly bool
	ProgramID  uuid.UUID
}

// Event is the authorization-relevant snapshot of an event. ProgramID and
// CohortID are uuid.Nil when the event carries no such scope.
type Event struct {
	ID         uuid.UUID
	Visibility EventVisibility
	ProgramID  uuid.UUID
	CohortID   uuid.UUID
	CreatedBy  uuid.UUID
}

// LibraryItem is the authorization-relevant snapshot of a library item.
type LibraryItem struct {
	ID          uuid.UUID
	AccessLevel LibraryAccess
	ProgramID   uuid.UUID
	CohortID    uuid.UUID
	AuthorID    uuid.UUID
}
