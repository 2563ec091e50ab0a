package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/govalues/decimal"
	"github.com/stretchr/testify/require"

	"github.com/five82/shelf/internal/inventory"
)

func TestPassword(t *testing.T) {
	t.Setenv(passwordEnv, "")
	_, err := password("")
	require.Error(t, err)

	got, err := password("flag")
	require.NoError(t, err)
	require.Equal(t, "flag", got)

	t.Setenv(passwordEnv, "from-env")
	got, err = password("")
	require.NoError(t, err)
	require.Equal(t, "from-env", got)
}

func TestPrintProducts(t *testing.T) {
	var b strings.Builder
	printProducts(&b, inventory.ProductList{})
	require.Equal(t, "No products match.\n", b.String())

	b.Reset()
	printProducts(&b, inventory.ProductList{
		Products: []inventory.Product{
			{Name: "Desk lamp", SKU: "LAMP-1", Category: "Home", Price: decimal.MustParse("12.5"), Quantity: 2, MinStockLevel: 5},
		},
		Pagination: inventory.Pagination{Page: 1, Limit: 10, Total: 1, Pages: 1},
	})
	out := b.String()
	require.Contains(t, out, "Desk lamp")
	require.Contains(t, out, "$12.50")
	require.Contains(t, out, string(inventory.StockLow))
	require.Contains(t, out, "page 1 of 1, 1 products")
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"login", "register", "logout", "whoami", "list"} {
		require.Contains(t, names, want)
	}
	require.NotNil(t, root.PersistentFlags().Lookup("config"))
	require.NotNil(t, root.PersistentFlags().Lookup("prefs"))
}

type fakeMe struct {
	user inventory.User
	err  error
}

func (f fakeMe) Me(context.Context) (inventory.User, error) { return f.user, f.err }

type fakeUserSession struct {
	token   string
	saveErr error
	saved   *inventory.User
}

func (s *fakeUserSession) Token() string { return s.token }

func (s *fakeUserSession) SetUser(u inventory.User) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = &u
	return nil
}

func (s *fakeUserSession) Expiry() (time.Time, bool) { return time.Time{}, false }

func TestWhoami(t *testing.T) {
	ada := inventory.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: "admin"}
	diskFull := errors.New("no space left on device")

	tests := []struct {
		name    string
		api     fakeMe
		sess    *fakeUserSession
		wantOut string
		wantErr string
	}{
		{
			name:    "signed in",
			api:     fakeMe{user: ada},
			sess:    &fakeUserSession{token: "tok"},
			wantOut: "Ada <ada@example.com>\nrole: admin\n",
		},
		{
			name:    "not signed in",
			sess:    &fakeUserSession{},
			wantErr: "not signed in",
		},
		{
			name:    "expired token",
			api:     fakeMe{err: inventory.ErrUnauthorized},
			sess:    &fakeUserSession{token: "tok"},
			wantErr: "session expired",
		},
		{
			name:    "credential write fails",
			api:     fakeMe{user: ada},
			sess:    &fakeUserSession{token: "tok", saveErr: diskFull},
			wantErr: "save session: no space left on device",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			err := whoami(context.Background(), &out, tt.api, tt.sess)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				require.Empty(t, out.String())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantOut, out.String())
			require.Equal(t, &ada, tt.sess.saved)
		})
	}
}
