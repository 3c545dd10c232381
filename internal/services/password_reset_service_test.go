package services_test

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"bikeshop/internal/config"
	"bikeshop/internal/mail"
	"bikeshop/internal/repos"
	"bikeshop/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, m mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

// tokenFrom pulls the reset token out of the link in a sent message.
func tokenFrom(t *testing.T, m mail.Message) string {
	t.Helper()
	i := strings.Index(m.HTML, "token=")
	require.GreaterOrEqual(t, i, 0)
	rest := m.HTML[i+len("token="):]
	end := strings.IndexAny(rest, `"<& `)
	require.Greater(t, end, 0)
	tok, err := url.QueryUnescape(rest[:end])
	require.NoError(t, err)
	return tok
}

func TestRequestResetIsSilentForUnknownEmail(t *testing.T) {
	db := seededDB(t)
	sender := &fakeSender{}
	svc := services.NewPasswordResetService(db, sender, commerce())

	require.NoError(t, svc.RequestReset(context.Background(), "ghost@bikeshop.test"))
	assert.Empty(t, sender.sent)

	var ve *services.ValidationError
	assert.ErrorAs(t, svc.RequestReset(context.Background(), "not-an-email"), &ve)
}

func TestRequestResetSendsLinkAndRotatesTokens(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	sender := &fakeSender{}
	svc := services.NewPasswordResetService(db, sender, commerce())
	alice := userByEmail(t, db, "alice@bikeshop.test")

	require.NoError(t, svc.RequestReset(ctx, "Alice@BikeShop.test"))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "alice@bikeshop.test", msg.To)
	assert.Equal(t, "Password Reset Request - BikeShop", msg.Subject)
	assert.Contains(t, msg.HTML, "http://localhost:3000/reset-password?token=")
	assert.Contains(t, msg.HTML, "1 hour")
	first := tokenFrom(t, msg)

	email, err := svc.VerifyToken(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "alice@bikeshop.test", email)

	require.NoError(t, svc.RequestReset(ctx, "alice@bikeshop.test"))
	second := tokenFrom(t, sender.sent[1])
	assert.NotEqual(t, first, second)

	_, err = svc.VerifyToken(ctx, first)
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Token has expired or already been used", ve.Message)

	tokens, err := repos.NewResetTokenRepo(db).ForUser(ctx, alice.ID)
	require.NoError(t, err)
	unused := 0
	for _, tk := range tokens {
		if !tk.Used {
			unused++
		}
	}
	assert.Equal(t, 1, unused)
}

func TestRequestResetDeliveryFailureKeepsToken(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	sender := &fakeSender{err: errors.New("smtp: connection refused")}
	svc := services.NewPasswordResetService(db, sender, commerce())
	bob := userByEmail(t, db, "bob@bikeshop.test")

	err := svc.RequestReset(ctx, "bob@bikeshop.test")
	assert.ErrorIs(t, err, services.ErrEmailDelivery)

	tokens, err := repos.NewResetTokenRepo(db).ForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.False(t, tokens[0].Used)
}

// stalledSMTP accepts TCP connections and never sends an SMTP greeting.
func stalledSMTP(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return ln.Addr().(*net.TCPAddr).Port
}

func TestRequestResetStalledServerHonoursCancellation(t *testing.T) {
	db := seededDB(t)
	sender := mail.NewSender(config.Mail{Host: "127.0.0.1", Port: stalledSMTP(t), From: "shop@bikeshop.test", Timeout: time.Minute})
	svc := services.NewPasswordResetService(db, sender, commerce())
	bob := userByEmail(t, db, "bob@bikeshop.test")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(150*time.Millisecond, cancel)
	start := time.Now()
	err := svc.RequestReset(ctx, "bob@bikeshop.test")
	assert.ErrorIs(t, err, services.ErrEmailDelivery)
	assert.Less(t, time.Since(start), 5*time.Second)

	tokens, err := repos.NewResetTokenRepo(db).ForUser(context.Background(), bob.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.False(t, tokens[0].Used)
}

func TestResetTokenExpires(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	svc := services.NewPasswordResetService(db, &fakeSender{}, commerce())
	bob := userByEmail(t, db, "bob@bikeshop.test")
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	tok, err := svc.Generate(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), tok.ExpiresAt)

	svc.Now = func() time.Time { return now.Add(59 * time.Minute) }
	_, err = svc.VerifyToken(ctx, tok.Token)
	require.NoError(t, err)

	svc.Now = func() time.Time { return now.Add(61 * time.Minute) }
	_, err = svc.VerifyToken(ctx, tok.Token)
	assert.EqualError(t, err, "Token has expired or already been used (token: Token has expired or already been used)")

	_, err = svc.VerifyToken(ctx, "nope")
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Invalid token", ve.Message)
}

func TestResetPasswordConsumesToken(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	svc := services.NewPasswordResetService(db, &fakeSender{}, commerce())
	auth := authService(db)
	bob := userByEmail(t, db, "bob@bikeshop.test")

	tok, err := svc.Generate(ctx, bob.ID)
	require.NoError(t, err)

	_, err = svc.ResetPassword(ctx, tok.Token, "N3w!passw0rd", "different")
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Passwords do not match", ve.Message)

	_, err = svc.ResetPassword(ctx, tok.Token, "weak", "weak")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Password reset failed", ve.Message)
	assert.NotEmpty(t, ve.Fields["new_password"])

	u, err := svc.ResetPassword(ctx, tok.Token, "N3w!passw0rd", "N3w!passw0rd")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, u.ID)

	_, _, err = auth.Login(ctx, "", "bob@bikeshop.test", "N3w!passw0rd")
	require.NoError(t, err)
	_, _, err = auth.Login(ctx, "", "bob@bikeshop.test", "Passw0rd!")
	assert.ErrorIs(t, err, services.ErrBadCreds)

	_, err = svc.ResetPassword(ctx, tok.Token, "An0ther!pass", "An0ther!pass")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Token has expired or already been used", ve.Message)
}
