package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"

	"github.com/nmoram/newsdesk/auth"
	"github.com/nmoram/newsdesk/internal/testutil"
)

type fixture struct {
	store  *auth.Store
	authn  *auth.Authenticator
	realm  *Realm
	router *httprouter.Router
}

func acquireRealm(ctx context.Context, t *testing.T) (*fixture, func()) {
	db, cleanup := testutil.AcquireDatabase(ctx, t)
	store := auth.NewStore(db)
	err := store.Setup(ctx)
	if err != nil {
		cleanup()
		t.Fatal(err)
	}
	codec := auth.NewCodec([]byte("0123456789abcdef0123456789abcdef"), time.Minute)
	authn := auth.NewAuthenticator(store, codec)
	realm := NewRealm(authn, auth.NewAuthorizer(store, codec))
	router := httprouter.New()
	realm.Routes(router)
	return &fixture{store: store, authn: authn, realm: realm, router: router}, cleanup
}

func TestProtect(t *testing.T) {
	ctx := context.Background()
	fx, cleanup := acquireRealm(ctx, t)
	defer cleanup()

	var admitted *auth.Principal
	protected := fx.realm.Protect(nil, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		admitted = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	fx.router.GET("/protected", protected)

	apitest.Handler(fx.router).
		Get("/protected").
		Expect(t).
		Status(http.StatusUnauthorized).
		Header("WWW-Authenticate", "Bearer").
		End()

	_, err := fx.authn.Register(ctx, "a@x.com", "pw1", auth.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	token, err := fx.authn.Login(ctx, "a@x.com", "pw1")
	if err != nil {
		t.Fatal(err)
	}
	apitest.Handler(fx.router).
		Get("/protected").
		Header("Authorization", fmt.Sprintf("Bearer %v", token)).
		Expect(t).
		Status(http.StatusOK).
		End()
	if admitted == nil || admitted.Email != "a@x.com" {
		t.Fatalf("expected admitted principal a@x.com, got %+v", admitted)
	}
}

func TestProtectScopeChallenge(t *testing.T) {
	ctx := context.Background()
	fx, cleanup := acquireRealm(ctx, t)
	defer cleanup()

	fx.router.DELETE("/admin-only", fx.realm.Protect([]string{auth.ScopeAdmin},
		func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusOK)
		}))

	_, err := fx.authn.Register(ctx, "a@x.com", "pw1", auth.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	token, err := fx.authn.Login(ctx, "a@x.com", "pw1")
	if err != nil {
		t.Fatal(err)
	}

	// a user-role token lacks the admin scope; the rejection carries
	// the scope challenge
	apitest.Handler(fx.router).
		Delete("/admin-only").
		Header("Authorization", fmt.Sprintf("Bearer %v", token)).
		Expect(t).
		Status(http.StatusUnauthorized).
		Header("WWW-Authenticate", `Bearer scope="admin"`).
		End()

	_, err = fx.authn.Register(ctx, "b@x.com", "pw2", auth.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	token, err = fx.authn.Login(ctx, "b@x.com", "pw2")
	if err != nil {
		t.Fatal(err)
	}
	apitest.Handler(fx.router).
		Delete("/admin-only").
		Header("Authorization", fmt.Sprintf("Bearer %v", token)).
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestProtectInactiveAccount(t *testing.T) {
	ctx := context.Background()
	fx, cleanup := acquireRealm(ctx, t)
	defer cleanup()

	fx.router.GET("/protected", fx.realm.Protect(nil,
		func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusOK)
		}))

	_, err := fx.authn.Register(ctx, "a@x.com", "pw1", auth.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	token, err := fx.authn.Login(ctx, "a@x.com", "pw1")
	if err != nil {
		t.Fatal(err)
	}
	if err := fx.store.SetActive(ctx, "a@x.com", false); err != nil {
		t.Fatal(err)
	}

	apitest.Handler(fx.router).
		Get("/protected").
		Header("Authorization", fmt.Sprintf("Bearer %v", token)).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.detail", "Inactive user")).
		End()
}
