// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"agora/internal/model"
)

// AssemblyRepository provides access to assemblies and their attendees.
type AssemblyRepository interface {
	// Create inserts a new assembly.
	Create(ctx context.Context, a *model.Assembly) error

	// Get loads an assembly by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.Assembly, error)

	// UpsertAttendee registers a persona with its freshly issued secret.
	// If the persona is already registered the stored secret is returned
	// unchanged, so re-registration never invalidates past receipts.
	UpsertAttendee(ctx context.Context, a *model.Attendee) (secret string, err error)

	// AttendeeSecret returns the secret of a registered persona.
	AttendeeSecret(ctx context.Context, assemblyID, personaID uuid.UUID) (string, error)

	// CountAttendees returns the number of eligible attendees of an assembly.
	CountAttendees(ctx context.Context, assemblyID uuid.UUID) (int, error)
}
