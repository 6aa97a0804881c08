package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/bucketgate/clientcli"
)

var showSecrets bool

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage server profiles",
	Long: `Manage server profiles.

A profile stores a gateway endpoint and the bearer token used for uploads and
deletes. Pick one with --profile or BUCKETGATE_PROFILE; otherwise the default
profile is used.

Profiles live in ~/.bucketgate/config.yaml unless --config or
BUCKETGATE_CLI_CONFIG points elsewhere.`,
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List profiles, marking the default with *",
		Args:  cobra.NoArgs,
		RunE:  runConfigureList,
	}
	listCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print tokens in full")

	showCmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show one profile (the default when no name is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigureShow,
	}
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print the token in full")

	configureCmd.AddCommand(
		listCmd,
		showCmd,
		&cobra.Command{
			Use:   "add <name>",
			Short: "Create or replace a profile interactively",
			Args:  cobra.ExactArgs(1),
			RunE:  runConfigureAdd,
		},
		&cobra.Command{
			Use:     "remove <name>",
			Aliases: []string{"rm"},
			Short:   "Remove a profile",
			Args:    cobra.ExactArgs(1),
			RunE:    runConfigureRemove,
		},
		&cobra.Command{
			Use:   "set-default <name>",
			Short: "Make a profile the default",
			Args:  cobra.ExactArgs(1),
			RunE:  runConfigureSetDefault,
		},
	)
}

// loadProfiles reads the profile file. A missing file is an empty set.
func loadProfiles() (*clientcli.ConfigFile, error) {
	file, err := clientcli.LoadConfigFile(getConfigPath())
	if errors.Is(err, os.ErrNotExist) {
		return &clientcli.ConfigFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return file, nil
}

func saveProfiles(file *clientcli.ConfigFile) error {
	if err := file.Save(getConfigPath()); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	return nil
}

func runConfigureList(cmd *cobra.Command, _ []string) error {
	file, err := loadProfiles()
	if err != nil {
		return err
	}

	def, err := file.GetDefaultProfile()
	if errors.Is(err, clientcli.ErrNoProfiles) {
		fmt.Fprintln(cmd.OutOrStdout(), "No profiles configured. Run 'bucketgate-cli configure add <name>'.")
		return nil
	}
	if err != nil {
		return err
	}

	return getFormatter().FormatProfileList(cmd.OutOrStdout(), file.Profiles, def.Name, showSecrets)
}

func runConfigureShow(cmd *cobra.Command, args []string) error {
	file, err := loadProfiles()
	if err != nil {
		return err
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	p, err := file.GetProfile(name)
	if err != nil {
		return err
	}
	def, err := file.GetDefaultProfile()
	if err != nil {
		return err
	}

	return getFormatter().FormatProfileShow(cmd.OutOrStdout(), *p, p.Name == def.Name, showSecrets)
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	file, err := loadProfiles()
	if err != nil {
		return err
	}

	existing, _ := file.GetProfile(name)
	if existing != nil && !confirm(fmt.Sprintf("Profile %q exists. Replace it", name)) {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}

	p, err := promptProfile(name, existing)
	if err != nil {
		return handlePromptError(err)
	}
	p.Default = len(file.Profiles) == 0 || confirm("Make this the default profile")

	fmt.Fprint(cmd.OutOrStdout(), "Checking endpoint... ")
	if err := checkEndpoint(cmd.Context(), p.Endpoint); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "unreachable: %v\n", err)
		if !confirm("Save the profile anyway") {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "OK")
	}

	if existing != nil {
		err = file.UpdateProfile(p)
	} else {
		err = file.AddProfile(p)
	}
	if err != nil {
		return err
	}
	if p.Default {
		if err := file.SetDefault(p.Name); err != nil {
			return err
		}
	}
	if err := saveProfiles(file); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %q.\n", name)
	return nil
}

func runConfigureRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	file, err := loadProfiles()
	if err != nil {
		return err
	}
	if _, err := file.GetProfile(name); err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Remove profile %q", name)) {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}

	if err := file.RemoveProfile(name); err != nil {
		return err
	}
	if err := saveProfiles(file); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed profile %q.\n", name)
	return nil
}

func runConfigureSetDefault(cmd *cobra.Command, args []string) error {
	file, err := loadProfiles()
	if err != nil {
		return err
	}
	if err := file.SetDefault(args[0]); err != nil {
		return err
	}
	if err := saveProfiles(file); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Default profile is now %q.\n", args[0])
	return nil
}

// promptProfile asks for the endpoint and token, offering the existing
// values as defaults.
func promptProfile(name string, existing *clientcli.Profile) (clientcli.Profile, error) {
	defaults := clientcli.Profile{Endpoint: clientcli.DefaultEndpoint}
	if existing != nil {
		defaults = *existing
	}

	endpointPrompt := promptui.Prompt{
		Label:    "Endpoint URL",
		Default:  defaults.Endpoint,
		Validate: validateEndpoint,
	}
	endpointURL, err := endpointPrompt.Run()
	if err != nil {
		return clientcli.Profile{}, err
	}

	tokenPrompt := promptui.Prompt{
		Label: "Token (empty for download only)",
		Mask:  '*',
	}
	tokenVal, err := tokenPrompt.Run()
	if err != nil {
		return clientcli.Profile{}, err
	}
	if tokenVal == "" {
		tokenVal = defaults.Token
	}

	return clientcli.Profile{
		Name:     name,
		Endpoint: strings.TrimSuffix(endpointURL, "/"),
		Token:    tokenVal,
	}, nil
}

func validateEndpoint(input string) error {
	u, err := url.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("URL must include a host")
	}
	return nil
}

func confirm(label string) bool {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := prompt.Run()
	return err == nil
}

// checkEndpoint checks that something answers HTTP at endpoint. The root is
// the empty key, so a 404 is the normal reply.
func checkEndpoint(ctx context.Context, endpoint string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
