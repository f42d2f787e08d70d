// usersctl 命令行前端：登录、列表、搜索、新增/编辑、删除与恢复
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"user-management/internal/core/logger"
	"user-management/internal/domain"
	"user-management/pkg/client"
	"user-management/pkg/view"
)

const usage = `usage: usersctl [global flags] <command> [args]

commands:
  login <username> <password>   print a bearer token
  list                          active and soft-deleted users
  deleted                       soft-deleted users only
  get <id>                      one user
  search <text>                 match names and unique ids
  add [form flags]              create, or edit with --id
  delete [-y] <id>...           soft-delete one or many
  restore <id>...               restore one or many
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if printable(err) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// errReported 表示 notifier 已经输出过失败信息
var errReported = errors.New("already reported")

func notified(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errReported, err)
}

func printable(err error) bool {
	return !errors.Is(err, pflag.ErrHelp) && !errors.Is(err, errReported)
}

type app struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	api   *client.Client
	st    *client.State
	col   view.Column
	order view.Order
	page  int
	size  int
}

// printNotifier 成功写 out，失败写 errOut
type printNotifier struct{ out, errOut io.Writer }

func (n printNotifier) Success(msg string) { fmt.Fprintln(n.out, msg) }
func (n printNotifier) Failure(msg string) { fmt.Fprintln(n.errOut, msg) }

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("usersctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage+"\nglobal flags:\n")
		fs.PrintDefaults()
	}
	var (
		base    = fs.String("api", envOr("USERS_API", "http://localhost:3001/api"), "API base URL")
		token   = fs.String("token", os.Getenv("USERS_TOKEN"), "bearer token")
		sortBy  = fs.String("sort", string(view.DefaultColumn), "sort column: "+columnNames())
		order   = fs.String("order", string(view.DefaultOrder), "asc or desc")
		page    = fs.Int("page", 1, "page number, from 1")
		size    = fs.Int("size", view.DefaultPageSize, "rows per page: 5, 10 or 25")
		timeout = fs.Duration("timeout", 15*time.Second, "request timeout")
		verbose = fs.BoolP("verbose", "v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return pflag.ErrHelp
	}

	col, err := view.ParseColumn(*sortBy)
	if err != nil {
		return fmt.Errorf("--sort %q: %w", *sortBy, err)
	}
	ord := view.Order(strings.ToLower(*order))
	if ord != view.Asc && ord != view.Desc {
		return fmt.Errorf("--order %q: must be asc or desc", *order)
	}

	log := zap.NewNop()
	if *verbose {
		var cleanup func()
		log, cleanup = logger.New("debug", false)
		defer cleanup()
	}

	api := client.New(*base,
		client.WithToken(*token),
		client.WithHTTPClient(&http.Client{Timeout: *timeout}),
	)
	a := &app{
		in:     bufio.NewReader(stdin),
		out:    stdout,
		errOut: stderr,
		api:    api,
		st: client.NewState(api,
			client.WithNotifier(printNotifier{out: stdout, errOut: stderr}),
			client.WithStateLogger(log),
		),
		col:   col,
		order: ord,
		page:  max(0, *page-1),
		size:  *size,
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "list":
		return a.list(ctx, a.st.FetchActive)
	case "deleted":
		return a.list(ctx, a.st.FetchDeleted)
	case "get":
		return a.get(ctx, rest)
	case "search":
		return a.search(ctx, rest)
	case "add":
		return a.add(ctx, rest)
	case "delete":
		return a.delete(ctx, rest)
	case "restore":
		return a.restore(ctx, rest)
	}
	fs.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("login needs <username> <password>")
	}
	tok, err := a.api.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, tok)
	return nil
}

// list 空列表时服务端返回 404 + message，这里当作无数据
func (a *app) list(ctx context.Context, fetch func(context.Context) error) error {
	if err := fetch(ctx); err != nil {
		if client.IsStatus(err, http.StatusNotFound) {
			fmt.Fprintln(a.out, "no users")
			return nil
		}
		return err
	}
	return a.table(a.st.Rows())
}

func (a *app) get(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("get needs <id>")
	}
	if err := a.st.FetchOne(ctx, args[0]); err != nil {
		return err
	}
	return a.table(a.st.Rows())
}

func (a *app) search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("search needs <text>")
	}
	if err := a.st.FetchActive(ctx); err != nil {
		if client.IsStatus(err, http.StatusNotFound) {
			fmt.Fprintln(a.out, "no users")
			return nil
		}
		return err
	}
	hits := map[string]bool{}
	for _, id := range view.Search(a.st.Autocomplete(), strings.Join(args, " ")) {
		hits[id] = true
	}
	var rows []domain.User
	for _, u := range a.st.Rows() {
		if hits[u.ID] {
			rows = append(rows, u)
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "no matches")
		return nil
	}
	return a.table(rows)
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("add", pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	var f view.UserForm
	fs.StringVar(&f.ID, "id", "", "existing record id; switches to edit")
	fs.StringVar(&f.UniqueID, "unique-id", "", "unique id")
	fs.StringVar(&f.FirstName, "first-name", "", "first name")
	fs.StringVar(&f.LastName, "last-name", "", "last name")
	fs.StringVar(&f.Email, "email", "", "email")
	fs.StringVar(&f.Gender, "gender", "", "Male, Female or Other")
	fs.StringVar(&f.SelectedDate, "dob", "", "date of birth, YYYY-MM-DD")
	fs.StringVar(&f.FullAddress, "address", "", "address")
	fs.StringVar(&f.PhoneNumber, "phone", "", "10 digit phone number")
	fs.StringVar(&f.Status, "status", "Active", "Active or Inactive")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if errs := f.Validate(); errs != nil {
		return fmt.Errorf("form has errors: %w", errs)
	}

	var (
		u   *domain.User
		err error
	)
	if f.Editing() {
		u, err = a.st.Update(ctx, f.ID, f.Payload())
	} else {
		u, err = a.st.Create(ctx, f.Payload())
	}
	if err != nil {
		return notified(err)
	}
	return view.RenderTable(a.out, []domain.User{*u}, 0, nil)
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("delete", pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	yes := fs.BoolP("yes", "y", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids := fs.Args()
	if len(ids) == 0 {
		return view.ErrNothingSelected
	}

	if len(ids) == 1 {
		d := view.DeleteDialog{ID: ids[0]}
		if !*yes {
			name := ids[0]
			if u, err := a.api.GetUser(ctx, ids[0]); err == nil {
				name = u.FullName()
			}
			if !a.confirm(d.Prompt(name)) {
				return nil
			}
		}
		_, err := d.Confirm(ctx, a.st)
		return notified(err)
	}

	if !*yes && !a.confirm(fmt.Sprintf("Delete %d users?", len(ids))) {
		return nil
	}
	a.selectIDs(ids)
	_, err := view.DeleteSelected(ctx, a.st)
	return notified(err)
}

func (a *app) restore(ctx context.Context, args []string) error {
	switch len(args) {
	case 0:
		return view.ErrNothingSelected
	case 1:
		_, err := view.RestoreOne(ctx, a.st, args[0])
		return notified(err)
	}
	a.selectIDs(args)
	_, err := view.RestoreSelected(ctx, a.st)
	return notified(err)
}

func (a *app) selectIDs(ids []string) {
	a.st.Clear()
	for _, id := range ids {
		if !a.st.IsSelected(id) {
			a.st.Toggle(id)
		}
	}
}

func (a *app) confirm(prompt string) bool {
	fmt.Fprint(a.out, prompt+" [y/N] ")
	line, _ := a.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (a *app) table(rows []domain.User) error {
	rows = view.SortRows(rows, a.col, a.order)
	page, err := view.Paginate(rows, a.page, a.size)
	if err != nil {
		return err
	}
	if err := view.RenderTable(a.out, page, a.page*a.size, a.st.IsSelected); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "page %d/%d, %d rows\n", a.page+1, max(1, view.PageCount(len(rows), a.size)), len(rows))
	return nil
}

func columnNames() string {
	names := make([]string, len(view.Columns))
	for i, c := range view.Columns {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
