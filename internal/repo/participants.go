package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"groundswell/internal/domain"
)

// InsertParticipantIfAbsent adds a participant row, skipping silently when the
// (initiative, kind, individual, organization) key already exists. Returns
// whether a row was actually inserted.
func (r Repo) InsertParticipantIfAbsent(ctx context.Context, p domain.Participant) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT OR IGNORE INTO initiative_participants
(initiative_id,participant_kind,individual_id,organization_id,role,status,invited_by_individual_id,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?)`,
		p.InitiativeID, string(p.Kind), keyInt(p.IndividualID), keyInt(p.OrganizationID),
		p.Role, string(p.Status), nullableInt(p.InvitedByIndividual), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ParticipantPatch updates role and/or status; nil fields keep stored values.
type ParticipantPatch struct {
	Role   *string
	Status *domain.ParticipantStatus
}

// UpdateParticipant merge-patches the row identified by the uniqueness key.
func (r Repo) UpdateParticipant(ctx context.Context, initiativeID int64, kind domain.ParticipantKind, individualID, organizationID *int64, patch ParticipantPatch, now int64) error {
	var fields []string
	var args []any
	if patch.Role != nil {
		fields = append(fields, "role=?")
		args = append(args, *patch.Role)
	}
	if patch.Status != nil {
		fields = append(fields, "status=?")
		args = append(args, string(*patch.Status))
	}
	if len(fields) == 0 {
		return nil
	}
	fields = append(fields, "updated_at=?")
	args = append(args, now)
	clauses := []string{"initiative_id=?", "participant_kind=?", "individual_id=?", "organization_id=?"}
	args = append(args, initiativeID, string(kind), keyInt(individualID), keyInt(organizationID))
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE initiative_participants SET %s WHERE %s`,
		strings.Join(fields, ","), strings.Join(clauses, " AND ")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListParticipants joins identity display names onto the participant rows.
func (r Repo) ListParticipants(ctx context.Context, initiativeID int64) ([]domain.Participant, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT p.id,p.initiative_id,p.participant_kind,p.individual_id,p.organization_id,
p.role,p.status,p.invited_by_individual_id,p.created_at,p.updated_at,
COALESCE(i.name, o.name, '') AS display_name
FROM initiative_participants p
LEFT JOIN individuals i ON i.id=p.individual_id
LEFT JOIN organizations o ON o.id=p.organization_id
WHERE p.initiative_id=?
ORDER BY p.created_at ASC, p.id ASC`, initiativeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Participant
	for rows.Next() {
		var p domain.Participant
		var individualID, orgID int64
		var invitedBy sql.NullInt64
		if err := rows.Scan(&p.ID, &p.InitiativeID, &p.Kind, &individualID, &orgID,
			&p.Role, &p.Status, &invitedBy, &p.CreatedAt, &p.UpdatedAt, &p.DisplayName); err != nil {
			return nil, err
		}
		p.IndividualID = idPtr(individualID)
		p.OrganizationID = idPtr(orgID)
		p.InvitedByIndividual = intPtr(invitedBy)
		res = append(res, p)
	}
	return res, rows.Err()
}
