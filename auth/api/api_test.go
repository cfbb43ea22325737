package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"

	"github.com/nmoram/newsdesk/auth"
)

func TestRegisterEndpoint(t *testing.T) {
	ctx := context.Background()
	fx, cleanup := acquireRealm(ctx, t)
	defer cleanup()

	apitest.Handler(fx.router).
		Post("/auth/register").
		JSON(`{"email":"a@x.com","password":"pw1"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.email", "a@x.com")).
		Assert(jsonpath.Equal("$.role", "user")).
		Assert(jsonpath.Equal("$.is_active", true)).
		End()

	apitest.Handler(fx.router).
		Post("/auth/register").
		JSON(`{"email":"a@x.com","password":"other"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.detail", "Email already registered")).
		End()

	apitest.Handler(fx.router).
		Post("/auth/register").
		JSON(`{"email":"b@x.com","password":"pw","role":"superuser"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()

	apitest.Handler(fx.router).
		Post("/auth/register").
		JSON(`{"email":"","password":""}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestLoginEndpoint(t *testing.T) {
	ctx := context.Background()
	fx, cleanup := acquireRealm(ctx, t)
	defer cleanup()

	_, err := fx.authn.Register(ctx, "a@x.com", "pw1", auth.RoleUser)
	if err != nil {
		t.Fatal(err)
	}

	apitest.Handler(fx.router).
		Post("/auth/login").
		FormData("username", "a@x.com").
		FormData("password", "pw1").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.token_type", "bearer")).
		Assert(jsonpath.Present("$.access_token")).
		End()

	apitest.Handler(fx.router).
		Post("/auth/login").
		FormData("username", "a@x.com").
		FormData("password", "wrong").
		Expect(t).
		Status(http.StatusUnauthorized).
		Header("WWW-Authenticate", "Bearer").
		Assert(jsonpath.Equal("$.detail", "Incorrect email or password")).
		End()

	apitest.Handler(fx.router).
		Post("/auth/login").
		FormData("username", "ghost@x.com").
		FormData("password", "pw1").
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.detail", "Incorrect email or password")).
		End()
}

func TestVerifyEndpoint(t *testing.T) {
	ctx := context.Background()
	fx, cleanup := acquireRealm(ctx, t)
	defer cleanup()

	_, err := fx.authn.Register(ctx, "b@x.com", "pw2", auth.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	token, err := fx.authn.Login(ctx, "b@x.com", "pw2")
	if err != nil {
		t.Fatal(err)
	}

	apitest.Handler(fx.router).
		Get("/auth/verify").
		Header("Authorization", fmt.Sprintf("Bearer %v", token)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.status", "valid")).
		Assert(jsonpath.Equal("$.user.email", "b@x.com")).
		Assert(jsonpath.Equal("$.user.role", "admin")).
		End()

	apitest.Handler(fx.router).
		Get("/auth/verify").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	apitest.Handler(fx.router).
		Get("/auth/verify").
		Header("Authorization", "Bearer garbage").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}
