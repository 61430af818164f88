package postgres

import (
	"context"
	"fmt"

	"github.com/frozenbet/scoring-engine/internal/domain/invitation"
	qb "github.com/frozenbet/scoring-engine/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type InvitationRepository struct {
	db *sqlx.DB
}

func NewInvitationRepository(db *sqlx.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) Create(ctx context.Context, inv invitation.Invitation) error {
	query, args, err := qb.InsertModel("group_invitations", invitationInsertModel{
		PublicID:      inv.ID,
		GroupPublicID: inv.GroupID,
		InviterUserID: inv.InviterID,
		InviteeEmail:  inv.InviteeEmail,
		InviteeUserID: nullableString(inv.InviteeUserID),
		Status:        string(inv.Status),
		Token:         inv.Token,
		ExpiresAt:     inv.ExpiresAt.UTC(),
		CreatedAt:     inv.CreatedAt.UTC(),
		RespondedAt:   utcTimePtr(inv.RespondedAt),
	}, "")
	if err != nil {
		return fmt.Errorf("build create invitation query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			return fmt.Errorf("%w: %s", invitation.ErrDuplicate, constraint)
		}
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

func (r *InvitationRepository) GetByID(ctx context.Context, invitationID string) (invitation.Invitation, bool, error) {
	return r.getOne(ctx, "get invitation by id", qb.Eq("public_id", invitationID))
}

func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (invitation.Invitation, bool, error) {
	return r.getOne(ctx, "get invitation by token", qb.Eq("token", token))
}

func (r *InvitationRepository) ListByInviteeEmail(ctx context.Context, email string) ([]invitation.Invitation, error) {
	return r.list(ctx, "list invitations by invitee", qb.Eq("invitee_email", email))
}

func (r *InvitationRepository) ListByInviter(ctx context.Context, inviterID string) ([]invitation.Invitation, error) {
	return r.list(ctx, "list invitations by inviter", qb.Eq("inviter_user_id", inviterID))
}

func (r *InvitationRepository) ListPendingByGroupAndEmail(ctx context.Context, groupID, email string) ([]invitation.Invitation, error) {
	return r.list(ctx, "list pending invitations",
		qb.Eq("group_public_id", groupID),
		qb.Eq("invitee_email", email),
		qb.Eq("status", string(invitation.StatusPending)),
	)
}

func (r *InvitationRepository) Respond(ctx context.Context, resp invitation.Response) (bool, error) {
	update := qb.Update("group_invitations").
		Set("status", string(resp.Status)).
		Set("responded_at", resp.RespondedAt.UTC())
	if resp.InviteeUserID != "" {
		update = update.Set("invitee_user_id", resp.InviteeUserID)
	}
	query, args, err := update.
		Where(
			qb.Eq("public_id", resp.InvitationID),
			qb.Eq("status", string(invitation.StatusPending)),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build respond invitation query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("respond invitation id=%s: %w", resp.InvitationID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read respond invitation rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *InvitationRepository) Delete(ctx context.Context, invitationID string) error {
	query, args, err := qb.DeleteFrom("group_invitations").
		Where(qb.Eq("public_id", invitationID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete invitation query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete invitation id=%s: %w", invitationID, err)
	}
	return nil
}

func (r *InvitationRepository) getOne(ctx context.Context, op string, cond qb.Condition) (invitation.Invitation, bool, error) {
	query, args, err := qb.Select("*").From("group_invitations").Where(cond).ToSQL()
	if err != nil {
		return invitation.Invitation{}, false, fmt.Errorf("build %s query: %w", op, err)
	}

	var row invitationTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return invitation.Invitation{}, false, nil
		}
		return invitation.Invitation{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return invitationFromRow(row), true, nil
}

func (r *InvitationRepository) list(ctx context.Context, op string, conds ...qb.Condition) ([]invitation.Invitation, error) {
	query, args, err := qb.Select("*").From("group_invitations").
		Where(conds...).
		OrderBy("created_at DESC", "public_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []invitationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]invitation.Invitation, 0, len(rows))
	for _, row := range rows {
		out = append(out, invitationFromRow(row))
	}
	return out, nil
}

func invitationFromRow(row invitationTableModel) invitation.Invitation {
	return invitation.Invitation{
		ID:            row.PublicID,
		GroupID:       row.GroupPublicID,
		InviterID:     row.InviterUserID,
		InviteeEmail:  row.InviteeEmail,
		InviteeUserID: row.InviteeUserID.String,
		Status:        invitation.Status(row.Status),
		Token:         row.Token,
		ExpiresAt:     row.ExpiresAt.UTC(),
		CreatedAt:     row.CreatedAt.UTC(),
		RespondedAt:   utcTimePtr(row.RespondedAt),
	}
}
