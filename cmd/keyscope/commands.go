package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/TykTechnologies/keyscope/codec"
	"github.com/TykTechnologies/keyscope/connector"
	"github.com/TykTechnologies/keyscope/descriptor"
	"github.com/TykTechnologies/keyscope/enumerator"
	"github.com/TykTechnologies/keyscope/model"
	"github.com/TykTechnologies/keyscope/session"
	"github.com/TykTechnologies/keyscope/store"
	"github.com/TykTechnologies/keyscope/tester"
)

var errUsage = errors.New("usage")

type app struct {
	home   string
	stdout io.Writer
	log    *zap.Logger
	opts   []model.Option
}

func (a *app) openStore() (*store.Store, error) {
	return store.Open(a.home, model.WithLogger(a.log))
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stdout)

	return fs
}

// splitName takes a leading connection name off args.
func splitName(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}

	return "", args
}

func requireName(cmd string, args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: keyscope %s NAME", errUsage, cmd)
	}

	return args[0], nil
}

func (a *app) list(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: keyscope list", errUsage)
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}

	names, err := s.List()
	if err != nil {
		return err
	}

	for _, n := range store.NewConnectionList(names...).Names() {
		fmt.Fprintln(a.stdout, n)
	}

	return nil
}

func (a *app) show(args []string) error {
	name, err := requireName("show", args)
	if err != nil {
		return err
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}

	cfg, err := s.Load(name)
	if err != nil {
		return err
	}

	encoded, err := codec.Encode(cfg)
	if err != nil {
		return err
	}

	visible := model.RulesFor(cfg.Topology()).Visible()
	for _, f := range codec.Keys {
		if f != model.FieldTopology && !slices.Contains(visible, f) {
			continue
		}

		value := encoded[string(f)]
		if f == model.FieldPassword && value != "" {
			value = "***"
		}

		fmt.Fprintf(a.stdout, "%s=%s\n", f, value)
	}

	desc, err := descriptor.Build(cfg)
	if err != nil {
		fmt.Fprintf(a.stdout, "# not usable: %v\n", err)
		return nil
	}

	fmt.Fprintf(a.stdout, "# %s\n", desc)

	return nil
}

func (a *app) save(args []string) error {
	name, rest := splitName(args)
	if name == "" {
		return fmt.Errorf("%w: keyscope save NAME [flags]", errUsage)
	}

	fs := a.flagSet("save")
	var cf connFlags
	cf.register(fs)

	if err := fs.Parse(rest); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}

	cfg := model.NewConnectionConfig()

	names, err := s.List()
	if err != nil {
		return err
	}

	if store.NewConnectionList(names...).Contains(store.NormalizeName(name)) {
		if cfg, err = s.Load(name); err != nil {
			return err
		}
	}

	if err := a.applyFlags(fs, &cf, cfg); err != nil {
		return err
	}

	if err := descriptor.Validate(cfg); err != nil {
		return err
	}

	saved, err := s.Save(name, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "saved", saved)

	return nil
}

func (a *app) delete(args []string) error {
	name, err := requireName("delete", args)
	if err != nil {
		return err
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}

	if err := s.Delete(name); err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "deleted", store.NormalizeName(name))

	return nil
}

func (a *app) test(ctx context.Context, args []string) error {
	fs := a.flagSet("test")
	desc, dialer, err := a.target(fs, args)
	if err != nil {
		return err
	}

	if err := tester.New(dialer, a.opts...).Test(ctx, desc); err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "PONG", desc)

	return nil
}

func (a *app) scan(ctx context.Context, args []string) error {
	fs := a.flagSet("scan")
	pattern := fs.String("pattern", "*", "glob pattern keys must match")
	paginate := fs.String("paginate", "", "page through SCAN (true) or list with KEYS (false), default from scan.paginate")
	pages := fs.Int("pages", 0, "stop after this many pages, 0 for all")
	count := fs.Int64("count", 0, "SCAN batch size hint, default from scan.page_size")
	details := fs.Bool("details", false, "print the type and ttl of every key")

	desc, dialer, err := a.target(fs, args)
	if err != nil {
		return err
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}

	settings, err := s.Settings()
	if err != nil {
		return err
	}

	paged := settings.Paginate()
	if *paginate != "" {
		if paged, err = strconv.ParseBool(*paginate); err != nil {
			return fmt.Errorf("%w: -paginate: %v", errUsage, err)
		}
	}

	pageSize := settings.PageSize()
	if *count > 0 {
		pageSize = *count
	}

	sess := session.Open(desc, dialer, append(a.opts, model.WithPageSize(pageSize))...)

	page, err := sess.StartScan(ctx, *pattern, paged)
	for n := 1; ; n++ {
		if err != nil {
			return err
		}

		if err := a.printKeys(ctx, sess, page.Keys, *details); err != nil {
			return err
		}

		if page.State != enumerator.HasMore || (*pages > 0 && n >= *pages) {
			break
		}

		page, err = sess.NextPage(ctx)
	}

	if sess.State() == enumerator.HasMore {
		fmt.Fprintln(a.stdout, "# more keys available")
	}

	return nil
}

func (a *app) printKeys(ctx context.Context, sess *session.Session, keys []string, details bool) error {
	for _, k := range keys {
		if !details {
			fmt.Fprintln(a.stdout, k)
			continue
		}

		kt, err := sess.KeyType(ctx, k)
		if err != nil {
			return err
		}

		ttl, err := sess.TTL(ctx, k)
		if err != nil {
			return err
		}

		fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", k, kt, ttl)
	}

	return nil
}

func (a *app) info(ctx context.Context, args []string) error {
	fs := a.flagSet("info")
	desc, dialer, err := a.target(fs, args)
	if err != nil {
		return err
	}

	ov, err := session.Open(desc, dialer, a.opts...).Overview(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "keys: %d\n\n%s", ov.KeyCount, strings.ReplaceAll(ov.Info, "\r\n", "\n"))

	return nil
}

func (a *app) set(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: keyscope set KEY VALUE", errUsage)
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}

	settings, err := s.Settings()
	if err != nil {
		return err
	}

	return settings.Set(args[0], args[1])
}

// target resolves the descriptor and dialer of a network command: an optional
// saved connection name, overridden by connection flags.
func (a *app) target(fs *flag.FlagSet, args []string) (model.Descriptor, model.Dialer, error) {
	var cf connFlags
	cf.register(fs)
	driver := fs.String("driver", model.RedisV9Type, "connector: redisv9 or local")

	name, rest := splitName(args)
	if err := fs.Parse(rest); err != nil {
		return model.Descriptor{}, nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg := model.NewConnectionConfig()

	if name != "" {
		s, err := a.openStore()
		if err != nil {
			return model.Descriptor{}, nil, err
		}

		if cfg, err = s.Load(name); err != nil {
			return model.Descriptor{}, nil, err
		}
	}

	if err := a.applyFlags(fs, &cf, cfg); err != nil {
		return model.Descriptor{}, nil, err
	}

	desc, err := descriptor.Build(cfg)
	if err != nil {
		return model.Descriptor{}, nil, err
	}

	dialer, err := connector.NewDialer(*driver, a.opts...)
	if err != nil {
		return model.Descriptor{}, nil, fmt.Errorf("%w: -driver %q", err, *driver)
	}

	return desc, dialer, nil
}

func (a *app) applyFlags(fs *flag.FlagSet, cf *connFlags, cfg *model.ConnectionConfig) error {
	if err := cf.apply(fs, cfg); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	passwordSet := false
	fs.Visit(func(f *flag.Flag) { passwordSet = passwordSet || f.Name == "password" })

	if pw := os.Getenv(envPassword); pw != "" && !passwordSet {
		cfg.SetPassword([]byte(pw))
	}

	return nil
}
