package httpapi

import (
	"net/http"

	"github.com/frozenbet/scoring-engine/internal/usecase"
)

func (h *Handler) SendInvitation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SendInvitation")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req sendInvitationRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	groupID := r.PathValue("groupID")
	inv, err := h.invitationService.Send(ctx, usecase.SendInvitationInput{
		InviterID: principal.UserID,
		GroupID:   groupID,
		Email:     req.Email,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "send invitation failed", "inviter_id", principal.UserID, "group_id", groupID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, sentInvitationToDTO(inv))
}

func (h *Handler) ListReceivedInvitations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListReceivedInvitations")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.invitationService.ListReceived(ctx, principal.UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]invitationDTO, 0, len(items))
	for _, item := range items {
		out = append(out, invitationToDTO(item, true))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListSentInvitations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSentInvitations")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.invitationService.ListSent(ctx, principal.UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]invitationDTO, 0, len(items))
	for _, item := range items {
		out = append(out, invitationToDTO(item, false))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AcceptInvitation")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	g, err := h.invitationService.Accept(ctx, principal.UserID, r.PathValue("token"))
	if err != nil {
		h.logger.WarnContext(ctx, "accept invitation failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, groupToDTO(g, false))
}

func (h *Handler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeclineInvitation")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.invitationService.Decline(ctx, principal.UserID, r.PathValue("token")); err != nil {
		h.logger.WarnContext(ctx, "decline invitation failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "declined"})
}

func (h *Handler) DeleteInvitation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteInvitation")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	invitationID := r.PathValue("invitationID")
	if err := h.invitationService.Delete(ctx, principal.UserID, invitationID); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"invitationId": invitationID, "status": "deleted"})
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListNotifications")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.notificationService.ListNotifications(ctx, principal.UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]notificationDTO, 0, len(items))
	for _, item := range items {
		out = append(out, notificationToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
