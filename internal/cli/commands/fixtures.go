package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/framework/internal/cli/config"
	"github.com/conduit-lang/framework/internal/cli/ui"
	"github.com/conduit-lang/framework/internal/orm/connection"
	"github.com/conduit-lang/framework/internal/testing/fixture"
)

// confirm asks before destructive operations. Replaced in tests.
var confirm = func(message string) (bool, error) {
	ok := false
	prompt := &survey.Confirm{Message: message, Default: false}
	if err := survey.AskOne(prompt, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// NewFixturesCommand creates the fixtures command
func NewFixturesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Manage test fixtures",
		Long: `Load the YAML fixtures of the application and its plugins and manage
their seed rows in the test databases.

Fixtures are addressed by identifier: app.Articles, app.Admin/Users,
plugin.Company/Blog.Comments or a full type name. Commands that take
identifiers use every known fixture when none are given.`,
		Example: `  # Show every fixture
  conduit fixtures list

  # Create tables and insert articles and their comments
  conduit fixtures insert --create-tables app.Articles app.Comments

  # Empty and refill every fixture table
  conduit fixtures setup

  # Truncate without confirmation
  conduit fixtures truncate --yes`,
	}

	cmd.AddCommand(newFixturesListCommand())
	cmd.AddCommand(newFixturesInsertCommand())
	cmd.AddCommand(newFixturesTruncateCommand())
	cmd.AddCommand(newFixturesSetupCommand())
	cmd.AddCommand(newFixturesDropCommand())

	return cmd
}

func newFixturesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available fixtures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newFixtureEnv(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			identifiers := env.registry.TypeNames()
			if len(identifiers) == 0 {
				ui.Warning(fmt.Sprintf("No fixtures found in %s", env.cfg.FixturesDir()), color.NoColor).Write(cmd.OutOrStdout())
				return nil
			}

			fixtures, err := env.load(cmd, identifiers)
			if err != nil {
				return err
			}

			table := ui.NewTable(cmd.OutOrStdout(), color.NoColor, "FIXTURE", "TABLE", "CONNECTION", "ROWS")
			for typeName, f := range fixtures.All() {
				table.AddRow(typeName, f.TableName(), env.manager.Resolve(f.ConnectionName()), fmt.Sprint(len(f.Records())))
			}
			table.Render()
			return nil
		},
	}
}

func newFixturesInsertCommand() *cobra.Command {
	var createTables bool

	cmd := &cobra.Command{
		Use:   "insert [identifiers...]",
		Short: "Insert fixture rows into the test databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newFixtureEnv(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			fixtures, err := env.load(cmd, args)
			if err != nil {
				return err
			}
			if createTables || env.cfg.Fixtures.CreateTables {
				if err := env.helper.CreateTables(cmd.Context(), fixtures.Fixtures()); err != nil {
					return err
				}
			}
			if err := env.helper.Insert(cmd.Context(), fixtures.Fixtures()); err != nil {
				return err
			}

			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Inserted %d fixture(s)", fixtures.Len()), color.NoColor)
			return nil
		},
	}

	cmd.Flags().BoolVar(&createTables, "create-tables", false, "Create missing fixture tables first")
	return cmd
}

func newFixturesTruncateCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "truncate [identifiers...]",
		Short: "Remove every row from the fixture tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newFixtureEnv(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			fixtures, err := env.load(cmd, args)
			if err != nil {
				return err
			}
			if ok, err := env.confirm(yes, fmt.Sprintf("Truncate %d fixture table(s)?", fixtures.Len())); err != nil || !ok {
				return err
			}
			if err := env.helper.Truncate(cmd.Context(), fixtures.Fixtures()); err != nil {
				return err
			}

			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Truncated %d fixture table(s)", fixtures.Len()), color.NoColor)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newFixturesSetupCommand() *cobra.Command {
	var (
		yes          bool
		createTables bool
	)

	cmd := &cobra.Command{
		Use:   "setup [identifiers...]",
		Short: "Truncate the fixture tables and insert fresh rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newFixtureEnv(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			fixtures, err := env.load(cmd, args)
			if err != nil {
				return err
			}
			if ok, err := env.confirm(yes, fmt.Sprintf("Replace the rows of %d fixture table(s)?", fixtures.Len())); err != nil || !ok {
				return err
			}
			if createTables || env.cfg.Fixtures.CreateTables {
				if err := env.helper.CreateTables(cmd.Context(), fixtures.Fixtures()); err != nil {
					return err
				}
			}
			if err := env.helper.Setup(cmd.Context(), fixtures.Fixtures()); err != nil {
				return err
			}

			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Set up %d fixture(s)", fixtures.Len()), color.NoColor)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&createTables, "create-tables", false, "Create missing fixture tables first")
	return cmd
}

func newFixturesDropCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "drop [identifiers...]",
		Short: "Drop the tables of fixtures that declare columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newFixtureEnv(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			fixtures, err := env.load(cmd, args)
			if err != nil {
				return err
			}
			if ok, err := env.confirm(yes, fmt.Sprintf("Drop %d fixture table(s)?", fixtures.Len())); err != nil || !ok {
				return err
			}
			if err := env.helper.DropTables(cmd.Context(), fixtures.Fixtures()); err != nil {
				return err
			}

			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Dropped %d fixture table(s)", fixtures.Len()), color.NoColor)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// fixtureEnv is everything a fixtures subcommand needs
type fixtureEnv struct {
	cfg      *config.Config
	registry *fixture.Registry
	manager  *connection.Manager
	helper   *fixture.Helper
	logger   *zap.Logger
	cmd      *cobra.Command
}

func newFixtureEnv(cmd *cobra.Command) (*fixtureEnv, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		ui.ConfigError(err.Error(), color.NoColor).Write(cmd.ErrOrStderr())
		return nil, err
	}

	registry := fixture.NewRegistry(cfg.Namespaces())
	if cfg.Fixtures.AppNamespace != "" {
		if err := loadFixtureDir(registry, cfg.FixturesDir(), cfg.Fixtures.AppNamespace); err != nil {
			return nil, err
		}
	}
	for _, p := range cfg.Fixtures.Plugins {
		namespace := p.Namespace
		if namespace == "" {
			namespace = p.Name
		}
		if err := loadFixtureDir(registry, cfg.PluginDir(p), namespace); err != nil {
			return nil, err
		}
	}

	manager, err := cfg.NewManager()
	if err != nil {
		ui.ConfigError(err.Error(), color.NoColor).Write(cmd.ErrOrStderr())
		return nil, err
	}

	logger := newLogger(cmd)
	helper := fixture.NewHelper(fixture.Options{
		Registry:    registry,
		Connections: manager,
		Logger:      logger,
	})

	return &fixtureEnv{
		cfg:      cfg,
		registry: registry,
		manager:  manager,
		helper:   helper,
		logger:   logger,
		cmd:      cmd,
	}, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func loadFixtureDir(registry *fixture.Registry, dir, namespace string) error {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	_, err := fixture.LoadDir(registry, dir, namespace)
	return err
}

// load loads the named fixtures, or every registered fixture when none are
// named. Missing fixtures are reported with suggestions.
func (e *fixtureEnv) load(cmd *cobra.Command, identifiers []string) (*fixture.Map, error) {
	if len(identifiers) == 0 {
		identifiers = e.registry.TypeNames()
	}

	fixtures, err := e.helper.LoadFixtures(identifiers...)
	var missing *fixture.MissingFixtureError
	if errors.As(err, &missing) {
		target := missing.TypeName
		if target == "" {
			target = missing.Identifier
		}
		suggestions := ui.FindSimilar(target, e.registry.TypeNames())
		ui.FixtureNotFound(err.Error(), suggestions, color.NoColor).Write(cmd.ErrOrStderr())
	}
	return fixtures, err
}

func (e *fixtureEnv) confirm(yes bool, message string) (bool, error) {
	if yes {
		return true, nil
	}
	ok, err := confirm(message)
	if err != nil {
		return false, err
	}
	if !ok {
		color.New(color.FgYellow).Fprintln(e.cmd.OutOrStdout(), "Aborted")
	}
	return ok, nil
}

func (e *fixtureEnv) close() {
	if err := e.manager.Close(); err != nil {
		e.logger.Warn("closing connections", zap.Error(err))
	}
	_ = e.logger.Sync()
}
