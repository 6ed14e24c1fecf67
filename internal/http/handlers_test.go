package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/stretchr/testify/require"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/application"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/approval"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence/memory"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/testfixtures"
)

const testPassword = "senha-super-secreta"

type testEnv struct {
	server *httptest.Server
	store  *memory.Store
}

// newTestEnv wires the real services against the in-memory store and exposes
// them through the full router, session middleware included.
func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	ids := testfixtures.NewIDGenerator("id").NextFunc()

	auditor := application.NewAuditor(store, ids, time.Now, logger)
	authSvc := application.NewAuthService(store, store, auditor, []byte("test-secret"), time.Hour, ids, time.Now, logger)
	reservationSvc := application.NewReservationService(store, store, store, auditor, ids, time.Now, logger)
	roomSvc := application.NewRoomService(store, auditor, ids, time.Now, logger)
	userSvc := application.NewUserService(store, auditor, ids, time.Now, logger)
	projectSvc := application.NewProjectService(store, store, auditor, ids, time.Now, logger)

	handler := NewRouter(RouterConfig{
		Auth:         NewAuthHandler(authSvc, logger),
		Reservations: NewReservationHandler(reservationSvc, logger),
		Rooms:        NewRoomHandler(roomSvc, logger),
		Users:        NewUserHandler(userSvc, logger),
		Projects:     NewProjectHandler(projectSvc, logger),
		SessionGuard: RequireSession(authSvc, logger),
		Middleware:   []func(http.Handler) http.Handler{RequestLogger(logger)},
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	hash, err := application.HashPassword(testPassword)
	require.NoError(t, err)

	ctx := context.Background()
	seed := func(id, name, email string, role approval.Role) {
		_, err := store.CreateUser(ctx, persistence.User{
			ID: id, Name: name, Email: email, Role: role, PasswordHash: hash,
		})
		require.NoError(t, err)
	}
	seed("admin-1", "Marta Admin", "admin@uni.edu", approval.RoleAdmin)
	seed("aluno-1", "João Aluno", "aluno@uni.edu", approval.RoleStudent)
	seed("prof-1", "Ana Professora", "professor@uni.edu", approval.RoleProfessor)

	return testEnv{server: server, store: store}
}

func (env testEnv) client(t *testing.T) *httpexpect.Expect {
	return httpexpect.Default(t, env.server.URL)
}

func (env testEnv) login(t *testing.T, e *httpexpect.Expect, email string) string {
	t.Helper()

	resp := e.POST("/sessions").
		WithJSON(map[string]string{"email": email, "password": testPassword}).
		Expect().
		Status(http.StatusCreated)

	return resp.JSON().Object().Value("token").String().NotEmpty().Raw()
}

func TestSessionEndpoints(t *testing.T) {
	env := newTestEnv(t)
	e := env.client(t)

	t.Run("login issues token via body, header and cookie", func(t *testing.T) {
		resp := e.POST("/sessions").
			WithJSON(map[string]string{"email": "Admin@Uni.edu ", "password": testPassword}).
			Expect().
			Status(http.StatusCreated)

		resp.Header("X-Session-Token").NotEmpty()
		resp.Cookie("session_token").Value().NotEmpty()

		body := resp.JSON().Object()
		body.Value("token").String().NotEmpty()
		body.Value("user").Object().HasValue("id", "admin-1").HasValue("role", "admin")
	})

	t.Run("wrong password is rejected with a localized message", func(t *testing.T) {
		e.POST("/sessions").
			WithJSON(map[string]string{"email": "admin@uni.edu", "password": "errada"}).
			Expect().
			Status(http.StatusUnauthorized).
			JSON().Object().
			HasValue("error_code", "AUTH_INVALID_CREDENTIALS").
			HasValue("message", "e-mail ou senha incorretos.")
	})

	t.Run("protected routes refuse requests without a token", func(t *testing.T) {
		e.GET("/rooms").Expect().Status(http.StatusUnauthorized)
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		token := env.login(t, e, "aluno@uni.edu")

		e.GET("/rooms").WithHeader("Authorization", "Bearer "+token).
			Expect().Status(http.StatusOK)

		e.DELETE("/sessions/current").WithHeader("Authorization", "Bearer "+token).
			Expect().Status(http.StatusNoContent)

		e.GET("/rooms").WithHeader("Authorization", "Bearer "+token).
			Expect().Status(http.StatusUnauthorized).
			JSON().Object().HasValue("error_code", "AUTH_SESSION_REVOKED")
	})
}

func TestReservationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	e := env.client(t)

	adminToken := env.login(t, e, "admin@uni.edu")
	studentToken := env.login(t, e, "aluno@uni.edu")

	roomID := e.POST("/rooms").WithHeader("Authorization", "Bearer "+adminToken).
		WithJSON(map[string]any{"name": "Sala 101", "location": "Bloco A", "capacity": 30}).
		Expect().Status(http.StatusCreated).
		JSON().Object().Value("room").Object().Value("id").String().Raw()

	day := time.Now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour)
	slot := func(startHour, endHour int) map[string]any {
		return map[string]any{
			"room_id": roomID,
			"title":   "Reunião do grupo de estudos",
			"start":   day.Add(time.Duration(startHour) * time.Hour).Format(time.RFC3339),
			"end":     day.Add(time.Duration(endHour) * time.Hour).Format(time.RFC3339),
		}
	}

	var firstID string

	t.Run("student reservation starts pending", func(t *testing.T) {
		body := e.POST("/reservations").WithHeader("Authorization", "Bearer "+studentToken).
			WithJSON(slot(10, 11)).
			Expect().Status(http.StatusCreated).
			JSON().Object().Value("reservation").Object()

		body.HasValue("status", "pending").HasValue("requester_id", "aluno-1")
		firstID = body.Value("id").String().NotEmpty().Raw()
	})

	t.Run("overlapping slot is refused with conflict details", func(t *testing.T) {
		resp := e.POST("/reservations").WithHeader("Authorization", "Bearer "+studentToken).
			WithJSON(slot(10, 12)).
			Expect().Status(http.StatusConflict).
			JSON().Object()

		resp.HasValue("error_code", "RESERVATION_CONFLICT")
		resp.Value("conflicts").Array().Length().IsEqual(1)
		resp.Value("conflicts").Array().Value(0).Object().HasValue("id", firstID)
	})

	t.Run("back-to-back slot is accepted", func(t *testing.T) {
		e.POST("/reservations").WithHeader("Authorization", "Bearer "+studentToken).
			WithJSON(slot(11, 12)).
			Expect().Status(http.StatusCreated)
	})

	t.Run("missing fields return localized validation errors", func(t *testing.T) {
		errs := e.POST("/reservations").WithHeader("Authorization", "Bearer "+studentToken).
			WithJSON(map[string]any{"room_id": roomID}).
			Expect().Status(http.StatusUnprocessableEntity).
			JSON().Object().Value("errors").Object()

		errs.HasValue("title", "o título é obrigatório.")
		errs.HasValue("start", "o horário de início é obrigatório.")
	})

	t.Run("admin approves the pending reservation", func(t *testing.T) {
		e.POST("/reservations/"+firstID+"/approve").WithHeader("Authorization", "Bearer "+adminToken).
			Expect().Status(http.StatusOK).
			JSON().Object().Value("reservation").Object().HasValue("status", "approved")
	})

	t.Run("rejecting without a reason fails", func(t *testing.T) {
		pendingID := e.POST("/reservations").WithHeader("Authorization", "Bearer "+studentToken).
			WithJSON(slot(14, 15)).
			Expect().Status(http.StatusCreated).
			JSON().Object().Value("reservation").Object().Value("id").String().Raw()

		e.POST("/reservations/"+pendingID+"/reject").WithHeader("Authorization", "Bearer "+adminToken).
			WithJSON(map[string]string{"reason": "   "}).
			Expect().Status(http.StatusUnprocessableEntity).
			JSON().Object().Value("errors").Object().
			HasValue("reason", "informe o motivo da rejeição.")

		e.POST("/reservations/"+pendingID+"/reject").WithHeader("Authorization", "Bearer "+adminToken).
			WithJSON(map[string]string{"reason": "A sala estará em manutenção."}).
			Expect().Status(http.StatusOK).
			JSON().Object().Value("reservation").Object().
			HasValue("status", "rejected").
			HasValue("rejection_reason", "A sala estará em manutenção.")
	})

	t.Run("student cancels their own reservation", func(t *testing.T) {
		ownID := e.POST("/reservations").WithHeader("Authorization", "Bearer "+studentToken).
			WithJSON(slot(16, 17)).
			Expect().Status(http.StatusCreated).
			JSON().Object().Value("reservation").Object().Value("id").String().Raw()

		e.POST("/reservations/"+ownID+"/cancel").WithHeader("Authorization", "Bearer "+studentToken).
			Expect().Status(http.StatusOK).
			JSON().Object().Value("reservation").Object().HasValue("status", "cancelled")
	})

	t.Run("professor without project link cannot approve", func(t *testing.T) {
		profToken := env.login(t, e, "professor@uni.edu")
		pendingID := e.POST("/reservations").WithHeader("Authorization", "Bearer "+studentToken).
			WithJSON(slot(18, 19)).
			Expect().Status(http.StatusCreated).
			JSON().Object().Value("reservation").Object().Value("id").String().Raw()

		e.POST("/reservations/"+pendingID+"/approve").WithHeader("Authorization", "Bearer "+profToken).
			Expect().Status(http.StatusForbidden).
			JSON().Object().HasValue("error_code", "AUTH_FORBIDDEN")
	})
}

func TestPendingQueueEndpoint(t *testing.T) {
	env := newTestEnv(t)
	e := env.client(t)

	professorID := "prof-1"
	_, err := env.store.CreateProject(context.Background(), persistence.Project{
		ID: "project-1", Name: "Iniciação Científica", ProfessorID: &professorID,
	})
	require.NoError(t, err)

	adminToken := env.login(t, e, "admin@uni.edu")
	studentToken := env.login(t, e, "aluno@uni.edu")
	profToken := env.login(t, e, "professor@uni.edu")

	roomID := e.POST("/rooms").WithHeader("Authorization", "Bearer "+adminToken).
		WithJSON(map[string]any{"name": "Laboratório 2", "capacity": 12}).
		Expect().Status(http.StatusCreated).
		JSON().Object().Value("room").Object().Value("id").String().Raw()

	day := time.Now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour)
	create := func(startHour int, projectID *string) string {
		payload := map[string]any{
			"room_id": roomID,
			"title":   "Experimento",
			"start":   day.Add(time.Duration(startHour) * time.Hour).Format(time.RFC3339),
			"end":     day.Add(time.Duration(startHour+1) * time.Hour).Format(time.RFC3339),
		}
		if projectID != nil {
			payload["project_id"] = *projectID
		}
		return e.POST("/reservations").WithHeader("Authorization", "Bearer "+studentToken).
			WithJSON(payload).
			Expect().Status(http.StatusCreated).
			JSON().Object().Value("reservation").Object().Value("id").String().Raw()
	}

	projectID := "project-1"
	linkedID := create(8, &projectID)
	plainID := create(10, nil)

	t.Run("professor sees only their project's reservations", func(t *testing.T) {
		queue := e.GET("/reservations/pending").WithHeader("Authorization", "Bearer "+profToken).
			Expect().Status(http.StatusOK).
			JSON().Object().Value("reservations").Array()

		queue.Length().IsEqual(1)
		queue.Value(0).Object().HasValue("id", linkedID)
	})

	t.Run("admin queue holds reservations with no professor gate", func(t *testing.T) {
		queue := e.GET("/reservations/pending").WithHeader("Authorization", "Bearer "+adminToken).
			Expect().Status(http.StatusOK).
			JSON().Object().Value("reservations").Array()

		queue.Length().IsEqual(1)
		queue.Value(0).Object().HasValue("id", plainID)
	})

	t.Run("students have no approval inbox", func(t *testing.T) {
		e.GET("/reservations/pending").WithHeader("Authorization", "Bearer "+studentToken).
			Expect().Status(http.StatusForbidden)
	})
}

func TestCalendarEndpoint(t *testing.T) {
	env := newTestEnv(t)
	e := env.client(t)

	adminToken := env.login(t, e, "admin@uni.edu")

	roomID := e.POST("/rooms").WithHeader("Authorization", "Bearer "+adminToken).
		WithJSON(map[string]any{"name": "Auditório", "capacity": 120}).
		Expect().Status(http.StatusCreated).
		JSON().Object().Value("room").Object().Value("id").String().Raw()

	day := time.Now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour)
	e.POST("/reservations").WithHeader("Authorization", "Bearer "+adminToken).
		WithJSON(map[string]any{
			"room_id": roomID,
			"title":   "Colação de grau",
			"start":   day.Add(9 * time.Hour).Format(time.RFC3339),
			"end":     day.Add(11 * time.Hour).Format(time.RFC3339),
		}).
		Expect().Status(http.StatusCreated).
		JSON().Object().Value("reservation").Object().HasValue("status", "approved")

	t.Run("day view returns the approved reservation", func(t *testing.T) {
		entries := e.GET("/calendar").WithHeader("Authorization", "Bearer "+adminToken).
			WithQuery("room_id", roomID).
			WithQuery("day", day.Format("2006-01-02")).
			Expect().Status(http.StatusOK).
			JSON().Object().Value("entries").Array()

		entries.Length().IsEqual(1)
		entries.Value(0).Object().
			HasValue("title", "Colação de grau").
			HasValue("is_recurrence_instance", false)
	})

	t.Run("missing window parameters are rejected", func(t *testing.T) {
		e.GET("/calendar").WithHeader("Authorization", "Bearer "+adminToken).
			WithQuery("room_id", roomID).
			Expect().Status(http.StatusBadRequest)
	})
}

func TestUserAndRoomAuthorization(t *testing.T) {
	env := newTestEnv(t)
	e := env.client(t)

	adminToken := env.login(t, e, "admin@uni.edu")
	studentToken := env.login(t, e, "aluno@uni.edu")

	t.Run("room mutations require the admin role", func(t *testing.T) {
		e.POST("/rooms").WithHeader("Authorization", "Bearer "+studentToken).
			WithJSON(map[string]any{"name": "Sala X", "capacity": 10}).
			Expect().Status(http.StatusForbidden).
			JSON().Object().HasValue("error_code", "AUTH_FORBIDDEN")

		e.GET("/rooms").WithHeader("Authorization", "Bearer "+studentToken).
			Expect().Status(http.StatusOK)
	})

	t.Run("user management is admin only", func(t *testing.T) {
		e.GET("/users").WithHeader("Authorization", "Bearer "+studentToken).
			Expect().Status(http.StatusForbidden)

		e.POST("/users").WithHeader("Authorization", "Bearer "+adminToken).
			WithJSON(map[string]any{
				"name":     "Carlos Coordenador",
				"email":    "coordenador@uni.edu",
				"role":     "coordenador",
				"password": testPassword,
			}).
			Expect().Status(http.StatusCreated).
			JSON().Object().Value("user").Object().HasValue("role", "coordenador")
	})

	t.Run("short passwords return a localized message", func(t *testing.T) {
		e.POST("/users").WithHeader("Authorization", "Bearer "+adminToken).
			WithJSON(map[string]any{
				"name":     "Curto",
				"email":    "curto@uni.edu",
				"role":     "aluno",
				"password": "curta",
			}).
			Expect().Status(http.StatusUnprocessableEntity).
			JSON().Object().Value("errors").Object().
			HasValue("password", "a senha deve ter no mínimo 8 caracteres.")
	})
}
