package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/cryptoutil"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/policy"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/serviceconfig"
)

var (
	validatePolicyFile   string
	validateServicesFile string
	validateExpectedTag  string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the policy and service config documents",
	Long:  "Loads the policy document, compiles its Rego modules, and parses the service config, without starting the server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, span := tracer.Start(ctx, "validate")
		defer span.End()

		if validatePolicyFile == "" {
			validatePolicyFile = "policy.yaml"
		}
		if validateServicesFile == "" {
			validateServicesFile = "services.yaml"
		}

		pol, err := policy.Load(validatePolicyFile, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ Policy invalid: %s\n", validatePolicyFile)
			return fmt.Errorf("validating policy: %w", err)
		}

		if _, err := policy.NewEngine(ctx, pol); err != nil {
			fmt.Fprintf(os.Stderr, "✗ Policy compilation failed: %s\n", validatePolicyFile)
			return fmt.Errorf("compiling policy: %w", err)
		}

		if _, err := serviceconfig.Load(validateServicesFile); err != nil {
			fmt.Fprintf(os.Stderr, "✗ Service config invalid: %s\n", validateServicesFile)
			return fmt.Errorf("validating service config: %w", err)
		}

		if validateExpectedTag != "" {
			if !cryptoutil.IsHexString(validateExpectedTag) {
				return fmt.Errorf("--expect-version-tag must be a hex string, got %q", validateExpectedTag)
			}
			if validateExpectedTag != pol.VersionTag {
				fmt.Fprintf(os.Stderr, "✗ Policy version mismatch: loaded %s, expected %s\n", pol.VersionTag, validateExpectedTag)
				return fmt.Errorf("policy version tag %s does not match expected %s", pol.VersionTag, validateExpectedTag)
			}
		}

		log.Info().Str("policy_file", validatePolicyFile).Str("version", pol.VersionTag).Msg("policy validated")

		fmt.Printf("✓ Policy valid: %s (version %s)\n", validatePolicyFile, pol.VersionTag)
		fmt.Printf("✓ Services valid: %s\n", validateServicesFile)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validatePolicyFile, "policy", "p", "", "policy file to validate (default: policy.yaml)")
	validateCmd.Flags().StringVarP(&validateServicesFile, "services", "s", "", "service config file to validate (default: services.yaml)")
	validateCmd.Flags().StringVar(&validateExpectedTag, "expect-version-tag", "", "fail unless the loaded policy's version tag matches this hex string")
}
