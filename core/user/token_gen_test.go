package user

import (
	"testing"
	"time"
)

func newTestUser(t *testing.T) User {
	usr := User{ID: "b7a4b7e2-5f3a-4a29-8c95-45dd6cbf6a7d", Username: "awe", Email: "awe@test.cd"}
	if err := usr.SetPassword("L0c@lh0st!"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	return usr
}

func Test_makeToken(t *testing.T) {
	usr := newTestUser(t)

	token, err := MakeToken(usr)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}
	if token == "" {
		t.Fatal("MakeToken() returned an empty token")
	}

	if err := verifyToken(usr, token); err != nil {
		t.Errorf("verifyToken() = %v; want nil", err)
	}
}

func Test_verifyToken_invalid(t *testing.T) {
	usr := newTestUser(t)
	token, err := MakeToken(usr)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}

	tests := []struct {
		name    string
		usr     User
		token   string
		wantErr error
	}{
		{name: "empty token", usr: usr, token: "", wantErr: errInvalidToken},
		{name: "malformed token", usr: usr, token: "lol", wantErr: errInvalidToken},
		{name: "tampered token", usr: usr, token: token + "x", wantErr: errInvalidToken},
		{name: "other user's token", usr: func() User {
			other := newTestUser(t)
			other.ID = "e8b3f3a1-0000-4a29-8c95-45dd6cbf6a7d"
			return other
		}(), token: token, wantErr: errInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := verifyToken(tt.usr, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() = %v; want %v", err, tt.wantErr)
			}
		})
	}
}

func Test_verifyToken_expired(t *testing.T) {
	usr := newTestUser(t)

	NowFunc = func() time.Time { return time.Now().Add(-4 * 24 * time.Hour) }
	token, err := MakeToken(usr)
	NowFunc = time.Now
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}

	if err := verifyToken(usr, token); err != errTokenExpired {
		t.Errorf("verifyToken() = %v; want %v", err, errTokenExpired)
	}
}

// a password change invalidates previously issued tokens
func Test_verifyToken_passwordChanged(t *testing.T) {
	usr := newTestUser(t)
	token, err := MakeToken(usr)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}

	if err := usr.SetPassword("N3w-P@ssw0rd"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	if err := verifyToken(usr, token); err != errInvalidToken {
		t.Errorf("verifyToken() = %v; want %v", err, errInvalidToken)
	}
}
