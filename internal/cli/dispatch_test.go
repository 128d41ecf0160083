package cli_test

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"taskdesk/internal/app"
	"taskdesk/internal/cli"
	"taskdesk/internal/commands"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/i18n"
	"taskdesk/internal/notify"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
	"taskdesk/internal/store"
	"taskdesk/internal/testutil"
)

// fakePush records subscriptions and lets tests emit events.
type fakePush struct {
	mu      sync.Mutex
	handler notify.Handler
	subs    []*fakeSub
}

func (f *fakePush) subscribe(ctx context.Context, h notify.Handler) (app.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
	s := &fakeSub{done: make(chan struct{})}
	f.subs = append(f.subs, s)
	return s, nil
}

func (f *fakePush) emit(ev notify.Event) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(ev)
}

func (f *fakePush) opened() []*fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*fakeSub, len(f.subs))
	copy(out, f.subs)
	return out
}

type fakeSub struct {
	once sync.Once
	done chan struct{}
}

func (s *fakeSub) Close() error          { s.once.Do(func() { close(s.done) }); return nil }
func (s *fakeSub) Done() <-chan struct{} { return s.done }
func (s *fakeSub) Err() error            { return nil }

func (s *fakeSub) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// testFactory creates an app factory backed by svc and a file store in the
// configuration directory. A nil push disables the push channel.
func testFactory(svc *testutil.FakeService, push *fakePush) cli.AppFactory {
	return func(ctx context.Context, cfg *config.Config) (*app.App, func(), error) {
		opts := app.Options{
			Service:       svc,
			Sessions:      session.NewManager(store.NewFileStore(cfg.Dir), nil),
			ListenOnLogin: cfg.Interactive,
			Printer:       i18n.Printer(cfg.Lang),
		}
		if push != nil {
			opts.Subscribe = push.subscribe
		}
		a, err := app.New(opts)
		return a, func() {}, err
	}
}

// isolate points the configuration directory at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TASKDESK_CONFIG_DIR", dir)
	t.Setenv("TASKDESK_LANG", "en")
	t.Setenv("TASKDESK_STORE", "file")
	return dir
}

// loginAs persists a session for username in dir.
func loginAs(t *testing.T, svc *testutil.FakeService, dir, username string) {
	t.Helper()
	mgr := session.NewManager(store.NewFileStore(dir), nil)
	if _, err := mgr.Authenticate(context.Background(), svc, username, "pw"); err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
}

func run(t *testing.T, d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	isolate(t)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService(), nil))

	_, stderr, code := run(t, dispatcher, "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	isolate(t)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService(), nil))

	_, stderr, code := run(t, dispatcher, "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	isolate(t)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, nil)

	stdout, stderr, code := run(t, dispatcher, "help")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	isolate(t)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, nil)

	stdout, _, code := run(t, dispatcher, "version")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "taskdesk "+commands.Version+"\n" {
		t.Errorf("unexpected version output %q", stdout)
	}
}

func TestDispatcher_CaseInsensitiveCommand(t *testing.T) {
	isolate(t)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, nil)

	_, _, code := run(t, dispatcher, "VERSION")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	isolate(t)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, nil)

	_, stderr, code := run(t, dispatcher, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	isolate(t)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, nil)

	_, stderr, code := run(t, dispatcher, "list", "--filter")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -filter\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NotLoggedIn(t *testing.T) {
	isolate(t)
	svc := testutil.NewSeededService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	// No args dispatches to list, which needs a session.
	_, stderr, code := run(t, dispatcher)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	expected := "error: not logged in (run: taskdesk login)\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
	if n := svc.CallCount("ListTasks"); n != 0 {
		t.Errorf("expected no ListTasks call, got %d", n)
	}
}

func TestDispatcher_NoArgsListsTasks(t *testing.T) {
	dir := isolate(t)
	svc := testutil.NewSeededService()
	loginAs(t, svc, dir, "ayse")
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	stdout, stderr, code := run(t, dispatcher)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	for _, want := range []string{"All tasks", "Write report", "Review budget", "Plan offsite"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
		}
	}
}

func TestDispatcher_LoginThenList(t *testing.T) {
	isolate(t)
	svc := testutil.NewSeededService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))
	dispatcher.SetInput(strings.NewReader("ali\npw\n"))

	stdout, stderr, code := run(t, dispatcher, "login")
	if code != exitcode.Success {
		t.Fatalf("login: expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "Logged in as Ali (member)\n" {
		t.Errorf("unexpected login output %q", stdout)
	}
	if !strings.Contains(stderr, "Username: ") || !strings.Contains(stderr, "Password: ") {
		t.Errorf("expected prompts on stderr, got %q", stderr)
	}

	// A new invocation restores the stored session.
	stdout, stderr, code = run(t, dispatcher, "list", "--filter", "assigned")
	if code != exitcode.Success {
		t.Fatalf("list: expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if strings.Contains(stdout, "Review budget") {
		t.Errorf("assigned listing should not include Cem's task:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Write report") {
		t.Errorf("assigned listing should include Ali's task:\n%s", stdout)
	}
}

func taskIDs(svc *testutil.FakeService) []string {
	var ids []string
	for _, task := range svc.AllTasks() {
		ids = append(ids, task.ID)
	}
	return ids
}

func TestDispatcher_NumbersFollowLastListing(t *testing.T) {
	dir := isolate(t)
	svc := testutil.NewSeededService()
	svc.AddTask(service.Task{
		ID: "t4", Title: "Admin chore",
		AssignedTo: testutil.Ref(testutil.Admin), CreatedBy: testutil.Ref(testutil.Admin),
	})
	loginAs(t, svc, dir, "ayse")
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	stdout, stderr, code := run(t, dispatcher, "list", "--filter", "assigned")
	if code != exitcode.Success {
		t.Fatalf("list: exit code %d (stderr %q)", code, stderr)
	}
	if !strings.Contains(stdout, "1") || !strings.Contains(stdout, "Admin chore") || strings.Contains(stdout, "Write report") {
		t.Fatalf("unexpected assigned listing:\n%s", stdout)
	}

	// A separate invocation numbers tasks the way the listing above did.
	_, stderr, code = run(t, dispatcher, "rm", "--quiet", "1")
	if code != exitcode.Success {
		t.Fatalf("rm: exit code %d (stderr %q)", code, stderr)
	}
	if got, want := taskIDs(svc), []string{"t1", "t2", "t3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("tasks after rm = %v, want %v", got, want)
	}

	// Listing without --filter keeps the remembered one.
	stdout, _, _ = run(t, dispatcher, "list")
	if strings.Contains(stdout, "Write report") {
		t.Errorf("plain list should keep the assigned filter:\n%s", stdout)
	}
}

func TestDispatcher_StatusFollowsLastListing(t *testing.T) {
	dir := isolate(t)
	svc := testutil.NewSeededService()
	loginAs(t, svc, dir, "ali")
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	if _, stderr, code := run(t, dispatcher, "list", "--filter", "assigned"); code != exitcode.Success {
		t.Fatalf("list: exit code %d (stderr %q)", code, stderr)
	}
	if _, stderr, code := run(t, dispatcher, "status", "--quiet", "2", "done"); code != exitcode.Success {
		t.Fatalf("status: exit code %d (stderr %q)", code, stderr)
	}

	for _, task := range svc.AllTasks() {
		want := service.StatusPending
		switch task.ID {
		case "t3":
			want = service.StatusDone
		}
		if task.Status != want {
			t.Errorf("%s status = %s, want %s", task.ID, task.Status, want)
		}
	}
}

func TestDispatcher_LoginForgetsFilter(t *testing.T) {
	dir := isolate(t)
	svc := testutil.NewSeededService()
	loginAs(t, svc, dir, "ali")
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	if _, stderr, code := run(t, dispatcher, "list", "--filter", "assigned"); code != exitcode.Success {
		t.Fatalf("list: exit code %d (stderr %q)", code, stderr)
	}
	if _, stderr, code := run(t, dispatcher, "logout"); code != exitcode.Success {
		t.Fatalf("logout: exit code %d (stderr %q)", code, stderr)
	}
	loginAs(t, svc, dir, "ali")

	stdout, _, code := run(t, dispatcher, "list")
	if code != exitcode.Success {
		t.Fatalf("list: exit code %d", code)
	}
	if !strings.Contains(stdout, "Review budget") {
		t.Errorf("list after a new login should show every task:\n%s", stdout)
	}
}

func TestDispatcher_LoginRejected(t *testing.T) {
	isolate(t)
	svc := testutil.NewSeededService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))
	dispatcher.SetInput(strings.NewReader("wrong\n"))

	_, stderr, code := run(t, dispatcher, "login", "-u", "ayse", "--password-stdin")

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.HasSuffix(stderr, "error: invalid credentials\n") {
		t.Errorf("expected rejection message, got %q", stderr)
	}

	_, _, code = run(t, dispatcher, "whoami")
	if code != exitcode.AuthError {
		t.Errorf("expected no session after rejected login, got exit code %d", code)
	}
}

func TestDispatcher_LangFlag(t *testing.T) {
	dir := isolate(t)
	svc := testutil.NewSeededService()
	loginAs(t, svc, dir, "ayse")
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	stdout, _, code := run(t, dispatcher, "list", "--lang", "tr")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stdout, "Tüm Görevler") {
		t.Errorf("expected Turkish header, got:\n%s", stdout)
	}
}

func TestDispatcher_MemberCannotAdd(t *testing.T) {
	dir := isolate(t)
	svc := testutil.NewSeededService()
	loginAs(t, svc, dir, "ali")
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	_, stderr, code := run(t, dispatcher, "add", "-d", "nope", "-a", "Cem", "Sneaky")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: only admins can create tasks\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if n := svc.CallCount("CreateTask"); n != 0 {
		t.Errorf("expected no CreateTask call, got %d", n)
	}
}

func TestDispatcher_FactoryError(t *testing.T) {
	isolate(t)
	factory := func(ctx context.Context, cfg *config.Config) (*app.App, func(), error) {
		return nil, nil, errors.New("store unavailable")
	}
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	_, stderr, code := run(t, dispatcher, "list")

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: backend error: store unavailable\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_LogoutWithoutSession(t *testing.T) {
	isolate(t)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewSeededService(), nil))

	stdout, _, code := run(t, dispatcher, "logout")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "not logged in\n" {
		t.Errorf("unexpected output %q", stdout)
	}
}

func TestDispatcher_ConfigFlag(t *testing.T) {
	isolate(t)
	other := t.TempDir()
	svc := testutil.NewSeededService()
	loginAs(t, svc, other, "ayse")
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	if _, _, code := run(t, dispatcher, "whoami"); code != exitcode.AuthError {
		t.Errorf("expected no session in the default directory, got exit code %d", code)
	}
	stdout, _, code := run(t, dispatcher, "whoami", "--config", other)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stdout, "u-admin") {
		t.Errorf("expected admin identity, got %q", stdout)
	}
}
