package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories/mock"
	"github.com/brightboard/brightboard-server/src/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// adminDirectory wires GetByID to a fixed set of accounts so callerIdentity
// and target lookups resolve against the same repository.
func adminDirectory(accounts ...*models.User) *mock.UserRepository {
	users := mock.NewUserRepository()
	users.GetByIDFunc = func(ctx context.Context, id uuid.UUID) (*models.User, error) {
		for _, u := range accounts {
			if u.ID == id {
				return u, nil
			}
		}
		return nil, nil
	}
	return users
}

func sessionHandler(users *mock.UserRepository, sessions *mock.EditSessionRepository) *EditSessionHandler {
	sessionSvc := services.NewEditSessionService(sessions, users).WithClock(fixed(handlerNow))
	audit := services.NewAuditService(mock.NewAuditRepository()).WithClock(fixed(handlerNow))
	userSvc := services.NewUserService(users, sessionSvc, audit).WithClock(fixed(handlerNow))
	return NewEditSessionHandler(sessionSvc, userSvc)
}

func sessionRequest(t *testing.T, method string, targetID, adminID uuid.UUID) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/users/"+targetID.String()+"/start-edit", nil)
	c.Params = gin.Params{{Key: "id", Value: targetID.String()}}
	c.Set("user_id", adminID.String())
	return w, c
}

func TestHandleStartEdit_ConflictReportsHolder(t *testing.T) {
	target := testAccount(t, "hunter2abc")
	caller := testAccount(t, "hunter2abc")
	caller.Role = models.RoleAdmin
	users := adminDirectory(target, caller)

	holder := models.NewEditSession(target.ID, uuid.New(), "Sam Okafor", handlerNow.Add(-2*time.Minute))
	sessions := mock.NewEditSessionRepository()
	sessions.FindActiveFunc = func(ctx context.Context, id uuid.UUID) (*models.EditSession, error) {
		return holder, nil
	}

	handler := sessionHandler(users, sessions)
	w, c := sessionRequest(t, http.MethodPost, target.ID, caller.ID)
	handler.HandleStartEdit(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", w.Code, w.Body.String())
	}
	body := parseBody(t, w)
	if body["has_priority"] != false {
		t.Error("expected has_priority=false")
	}
	editor, _ := body["editor"].(map[string]interface{})
	if editor == nil || editor["admin_name"] != "Sam Okafor" {
		t.Errorf("expected the holder in the response, got %v", body["editor"])
	}
}

func TestHandleStartEdit_InvalidID(t *testing.T) {
	handler := sessionHandler(mock.NewUserRepository(), mock.NewEditSessionRepository())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/users/nope/start-edit", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	handler.HandleStartEdit(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestHandleHeartbeat_NeverHeld(t *testing.T) {
	target := testAccount(t, "hunter2abc")
	caller := testAccount(t, "hunter2abc")
	users := adminDirectory(target, caller)
	sessions := mock.NewEditSessionRepository()

	handler := sessionHandler(users, sessions)
	w, c := sessionRequest(t, http.MethodPost, target.ID, caller.ID)
	handler.HandleHeartbeat(c)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleHeartbeat_ExpiredSessionGone(t *testing.T) {
	target := testAccount(t, "hunter2abc")
	caller := testAccount(t, "hunter2abc")
	users := adminDirectory(target, caller)

	dead := models.NewEditSession(target.ID, caller.ID, caller.FullName(), handlerNow.Add(-6*time.Minute))
	sessions := mock.NewEditSessionRepository()
	sessions.FindActiveByHolderFunc = func(ctx context.Context, userID, adminID uuid.UUID) (*models.EditSession, error) {
		return dead, nil
	}

	handler := sessionHandler(users, sessions)
	w, c := sessionRequest(t, http.MethodPost, target.ID, caller.ID)
	handler.HandleHeartbeat(c)

	if w.Code != http.StatusGone {
		t.Fatalf("expected status 410, got %d: %s", w.Code, w.Body.String())
	}
	if len(sessions.Calls["Delete"]) != 1 {
		t.Error("expected the dead session row to be removed")
	}
}
