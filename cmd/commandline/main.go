package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ethanbaker/integrations/pkg/form"
	"github.com/ethanbaker/integrations/pkg/integration"
	"github.com/ethanbaker/integrations/pkg/sdk"
	"github.com/ethanbaker/integrations/pkg/utils"
	"go.uber.org/zap"
)

const usage = `Commands:
  list                                 list integrations and their state
  show <name>                          show the form of an integration
  set <name> <option> <value>          set an option value
  map <name> <external> <contact>      map an external field onto a contact field
  submit <name>                        connect, or disconnect when connected
  exit                                 quit`

// Session holds one form controller per integration, mirroring a page of integration forms
type Session struct {
	client *sdk.Client
	forms  map[string]*form.Controller
	out    io.Writer
}

// NewSession creates an empty session against the backend
func NewSession(client *sdk.Client, out io.Writer) *Session {
	return &Session{
		client: client,
		forms:  make(map[string]*form.Controller),
		out:    out,
	}
}

func main() {
	// Load global config
	cfg := utils.NewConfigFromEnvFile()
	logger := utils.NewLogger(cfg)
	defer logger.Sync()

	timeout := time.Duration(cfg.GetIntWithDefault("CLIENT_TIMEOUT_SECONDS", 30)) * time.Second
	client := sdk.NewClient(cfg.GetWithDefault("API_URL", "http://localhost:8080"), cfg.Get("API_KEY")).
		WithUserID(cfg.GetWithDefault("DEFAULT_USER_ID", "default")).
		WithHTTPClient(&http.Client{Timeout: timeout})

	ctx := context.Background()
	if err := client.Health(ctx); err != nil {
		logger.Fatal("integrations API is not reachable", zap.Error(err))
	}

	// Start interactive session
	if err := NewSession(client, os.Stdout).Run(ctx, os.Stdin); err != nil {
		logger.Fatal("interactive session failed", zap.Error(err))
	}
}

// Run reads commands from in until exit or end of input
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, "Integrations client started. Type 'help' for commands, 'exit' to quit.")

	if err := s.Refresh(ctx); err != nil {
		return err
	}

	// Create scanner for reading user input
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(s.out, "\n> ")

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())

		if input == "exit" {
			break
		}

		if input == "" {
			continue
		}

		if err := s.Execute(ctx, input); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	return nil
}

// Refresh loads a form for every definition in the catalog, seeded from the
// user's connected integrations
func (s *Session) Refresh(ctx context.Context) error {
	defs, err := s.client.ListIntegrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list integrations: %w", err)
	}

	instances, err := s.client.ListUserIntegrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list connected integrations: %w", err)
	}

	connected := make(map[string]*sdk.UserIntegration, len(instances))
	for _, instance := range instances {
		connected[instance.Name] = instance
	}

	forms := make(map[string]*form.Controller, len(defs))
	for _, def := range defs {
		controller, err := form.New(s.client, def, connected[def.Name])
		if err != nil {
			return err
		}
		forms[def.Name] = controller
	}

	s.forms = forms
	return nil
}

// Execute runs a single command line
func (s *Session) Execute(ctx context.Context, input string) error {
	args := strings.Fields(input)

	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, usage)
		return nil
	case "list":
		s.list()
		return nil
	}

	if len(args) < 2 {
		return fmt.Errorf("missing integration name, type 'help' for usage")
	}

	controller, ok := s.forms[args[1]]
	if !ok {
		return fmt.Errorf("integration '%s': %w", args[1], integration.ErrNotFound)
	}

	switch args[0] {
	case "show":
		s.show(controller)
		return nil

	case "set":
		if len(args) < 3 {
			return fmt.Errorf("usage: set <name> <option> <value>")
		}
		return controller.SetOption(args[2], strings.Join(args[3:], " "))

	case "map":
		if len(args) != 4 {
			return fmt.Errorf("usage: map <name> <external> <contact>")
		}
		return controller.SetMapping(args[2], args[3])

	case "submit":
		wasConnected := controller.Connected()
		if err := controller.Submit(ctx); err != nil {
			if _, ok := integration.AsValidationErrors(err); ok {
				s.show(controller)
				return fmt.Errorf("integration not connected, fix the fields above")
			}
			return err
		}

		if wasConnected {
			fmt.Fprintf(s.out, "Disconnected %s\n", args[1])
		} else {
			fmt.Fprintf(s.out, "Connected %s\n", args[1])
		}
		return nil
	}

	return fmt.Errorf("unknown command '%s', type 'help' for usage", args[0])
}

func (s *Session) list() {
	names := make([]string, 0, len(s.forms))
	for name := range s.forms {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(s.out, "%-24s %s\n", name, s.forms[name].State())
	}
}

func (s *Session) show(controller *form.Controller) {
	def := controller.Definition()
	errs := controller.Errors()

	fmt.Fprintf(s.out, "%s (%s)\n", def.Name, controller.State())

	fmt.Fprintln(s.out, "  options:")
	values := controller.Values()
	for _, key := range sortedKeys(values) {
		fmt.Fprintf(s.out, "    %s = %q%s\n", key, values[key], errorSuffix(errs, integration.ScopeOptions+"."+key))
	}

	if def.SupportsFieldMapping {
		fmt.Fprintln(s.out, "  field mappings:")
		mappings := controller.Mappings()
		for _, key := range sortedKeys(mappings) {
			fmt.Fprintf(s.out, "    %s -> %q%s\n", key, mappings[key], errorSuffix(errs, integration.ScopeFieldMappings+"."+key))
		}
	}

	// Errors on fields the form does not show
	for _, fe := range integration.ValidationErrorsFromFields(errs) {
		if fe.Scope == "" {
			fmt.Fprintf(s.out, "  %s: %s\n", fe.Key, fe.Message)
		}
	}
}

func errorSuffix(errs map[string]string, path string) string {
	if msg, ok := errs[path]; ok {
		return "  <- " + msg
	}
	return ""
}

func sortedKeys[M ~map[string]string](m M) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
