package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/auth/register", handler.Register)
	mux.HandleFunc("POST /v1/auth/login", handler.Login)
	mux.HandleFunc("POST /v1/auth/logout", handler.Logout)

	mux.HandleFunc("GET /v1/competitions", handler.ListCompetitions)
	mux.HandleFunc("GET /v1/competitions/{competitionID}", handler.GetCompetition)
	mux.HandleFunc("GET /v1/competitions/{competitionID}/matches", handler.ListCompetitionMatches)
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedAccountRoutes(mux, handler, verifier)
	registerAuthorizedGroupRoutes(mux, handler, verifier)
	registerAuthorizedInvitationRoutes(mux, handler, verifier)
	registerAuthorizedPredictionRoutes(mux, handler, verifier)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/ingestion/fixtures", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.IngestFixtures)))
	mux.Handle("POST /v1/internal/matches/{matchID}/result", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RecordMatchResult)))
	mux.Handle("POST /v1/internal/jobs/score-match", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunScoreMatchJob)))
	mux.Handle("POST /v1/internal/jobs/recompute-rankings", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRecomputeRankingsJob)))
}

func registerAuthorizedAccountRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/auth/me", RequireAuth(verifier, http.HandlerFunc(handler.Me)))
	mux.Handle("GET /v1/notifications", RequireAuth(verifier, http.HandlerFunc(handler.ListNotifications)))
	mux.Handle("GET /v1/sse/live-scores", RequireAuth(verifier, http.HandlerFunc(handler.StreamLiveScores)))
}

func registerAuthorizedGroupRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/groups", RequireAuth(verifier, http.HandlerFunc(handler.CreateGroup)))
	mux.Handle("GET /v1/groups", RequireAuth(verifier, http.HandlerFunc(handler.ListMyGroups)))
	mux.Handle("GET /v1/groups/public", RequireAuth(verifier, http.HandlerFunc(handler.ListPublicGroups)))
	mux.Handle("POST /v1/groups/join", RequireAuth(verifier, http.HandlerFunc(handler.JoinGroupByInviteCode)))
	mux.Handle("GET /v1/groups/{groupID}", RequireAuth(verifier, http.HandlerFunc(handler.GetGroup)))
	mux.Handle("POST /v1/groups/{groupID}/join", RequireAuth(verifier, http.HandlerFunc(handler.JoinPublicGroup)))
	mux.Handle("POST /v1/groups/{groupID}/leave", RequireAuth(verifier, http.HandlerFunc(handler.LeaveGroup)))
	mux.Handle("DELETE /v1/groups/{groupID}/members/{userID}", RequireAuth(verifier, http.HandlerFunc(handler.RemoveGroupMember)))
	mux.Handle("POST /v1/groups/{groupID}/rules", RequireAuth(verifier, http.HandlerFunc(handler.AddRule)))
	mux.Handle("GET /v1/groups/{groupID}/rules", RequireAuth(verifier, http.HandlerFunc(handler.ListRules)))
	mux.Handle("GET /v1/groups/{groupID}/rankings", RequireAuth(verifier, http.HandlerFunc(handler.ListRankings)))
	mux.Handle("POST /v1/groups/{groupID}/rankings/refresh", RequireAuth(verifier, http.HandlerFunc(handler.RefreshRankings)))
	mux.Handle("POST /v1/groups/{groupID}/invitations", RequireAuth(verifier, http.HandlerFunc(handler.SendInvitation)))
}

func registerAuthorizedInvitationRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/invitations/received", RequireAuth(verifier, http.HandlerFunc(handler.ListReceivedInvitations)))
	mux.Handle("GET /v1/invitations/sent", RequireAuth(verifier, http.HandlerFunc(handler.ListSentInvitations)))
	mux.Handle("POST /v1/invitations/{token}/accept", RequireAuth(verifier, http.HandlerFunc(handler.AcceptInvitation)))
	mux.Handle("POST /v1/invitations/{token}/decline", RequireAuth(verifier, http.HandlerFunc(handler.DeclineInvitation)))
	mux.Handle("DELETE /v1/invitations/{invitationID}", RequireAuth(verifier, http.HandlerFunc(handler.DeleteInvitation)))
}

func registerAuthorizedPredictionRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/predictions", RequireAuth(verifier, http.HandlerFunc(handler.SubmitPrediction)))
	mux.Handle("GET /v1/predictions", RequireAuth(verifier, http.HandlerFunc(handler.ListPredictions)))
	mux.Handle("GET /v1/statistics/groups/{groupID}", RequireAuth(verifier, http.HandlerFunc(handler.GetGroupStatistics)))
}
