package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/app"
	"github.com/five82/shelf/internal/browse"
	"github.com/five82/shelf/internal/inventory"
)

const passwordEnv = "SHELF_PASSWORD"

// withEnv opens the shared wiring for one command and closes it afterwards.
func withEnv(g *globalFlags, fn func(env *app.Env) error) error {
	env, err := app.Open(g.options())
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env)
}

func password(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(passwordEnv); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("password required: pass --password or set %s", passwordEnv)
}

func newLoginCmd(g *globalFlags) *cobra.Command {
	var email, pass string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := password(pass)
			if err != nil {
				return err
			}
			return withEnv(g, func(env *app.Env) error {
				res, err := env.Client.Login(cmd.Context(), inventory.Credentials{Email: strings.TrimSpace(email), Password: pw})
				if err != nil {
					if errors.Is(err, inventory.ErrUnauthorized) {
						return errors.New("email or password is incorrect")
					}
					return err
				}
				if err := env.Session.Save(res); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", res.User.Name, res.User.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&pass, "password", "", "account password (or "+passwordEnv+")")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd(g *globalFlags) *cobra.Command {
	var name, email, pass string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := password(pass)
			if err != nil {
				return err
			}
			return withEnv(g, func(env *app.Env) error {
				res, err := env.Client.Register(cmd.Context(), inventory.Registration{
					Name:     strings.TrimSpace(name),
					Email:    strings.TrimSpace(email),
					Password: pw,
				})
				if err != nil {
					return err
				}
				if err := env.Session.Save(res); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s <%s>\n", res.User.Name, res.User.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&pass, "password", "", "account password (or "+passwordEnv+")")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(g, func(env *app.Env) error {
				if err := env.Session.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func newWhoamiCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(g, func(env *app.Env) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), env.Config.RequestTimeout)
				defer cancel()
				return whoami(ctx, cmd.OutOrStdout(), env.Client, env.Session)
			})
		},
	}
}

type meFetcher interface {
	Me(ctx context.Context) (inventory.User, error)
}

type userSession interface {
	Token() string
	SetUser(u inventory.User) error
	Expiry() (time.Time, bool)
}

func whoami(ctx context.Context, out io.Writer, api meFetcher, sess userSession) error {
	if sess.Token() == "" {
		return errors.New("not signed in")
	}
	user, err := api.Me(ctx)
	if err != nil {
		if errors.Is(err, inventory.ErrUnauthorized) {
			return errors.New("session expired, run shelf login")
		}
		return err
	}
	if err := sess.SetUser(user); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	fmt.Fprintf(out, "%s <%s>\n", user.Name, user.Email)
	if user.Role != "" {
		fmt.Fprintf(out, "role: %s\n", user.Role)
	}
	if exp, ok := sess.Expiry(); ok {
		fmt.Fprintf(out, "token expires: %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

// listOutput is the --json shape of one page.
type listOutput struct {
	Location   string               `json:"location"`
	Products   []inventory.Product  `json:"products"`
	Pagination inventory.Pagination `json:"pagination"`
}

func newListCmd(g *globalFlags) *cobra.Command {
	var (
		query  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of products",
		Long: "Print one page of products. --query takes the same query string the\n" +
			"console shows in its header, for example \"search=lamp&inStock=true&page=2\".",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(g, func(env *app.Env) error {
				st := browse.ParseLocation(query)
				key := st.Key(env.Config.PageSize)
				list, err := env.Cache.Fetch(cmd.Context(), key)
				if err != nil {
					if errors.Is(err, inventory.ErrUnauthorized) {
						return errors.New("not signed in, run shelf login")
					}
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(listOutput{
						Location:   browse.EncodeState(st),
						Products:   list.Products,
						Pagination: list.Pagination,
					})
				}
				printProducts(cmd.OutOrStdout(), list)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "list query string")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func printProducts(w io.Writer, list inventory.ProductList) {
	if len(list.Products) == 0 {
		fmt.Fprintln(w, "No products match.")
		return
	}
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "SKU", "CATEGORY", "PRICE", "QTY", "STOCK").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, p := range list.Products {
		t.Row(p.Name, p.SKU, p.Category, "$"+p.Price.Round(2).Pad(2).String(), strconv.Itoa(p.Quantity), string(p.StockStatus()))
	}
	fmt.Fprintln(w, t.Render())
	pg := list.Pagination
	fmt.Fprintf(w, "page %d of %d, %d products\n", pg.Page, max(pg.Pages, 1), pg.Total)
}
