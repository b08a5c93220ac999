// Command propgen generates typed property tables for struct types, so
// fixture settings can name properties without accessor functions:
//
//	//go:generate go run github.com/arllen133/fixture/cmd/propgen -i .
//
//	settings.DisablePropertyNamingFor(OrderProps.ID)
package main

import (
	"fmt"
	"os"

	"github.com/arllen133/fixture/cmd/propgen/generator"
	"github.com/spf13/cobra"
)

var (
	inputDir    string
	outDir      string
	modelImport string
	include     []string
	exclude     []string
	rootCmd     = &cobra.Command{
		Use:   "propgen",
		Short: "Generate fixture property tables for Go structs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir != "" && outDir != inputDir && modelImport == "" {
				return fmt.Errorf("--import is required when -o names another package")
			}

			structs, err := generator.ParseStructs(inputDir)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", inputDir, err)
			}
			structs = generator.Filter(structs, include, exclude)
			if len(structs) == 0 {
				cmd.Println("No structs matched.")
				return nil
			}

			dir := inputDir
			if outDir != "" {
				dir = outDir
			}
			opts := generator.Options{OutDir: outDir, ModelImport: modelImport}
			for _, s := range structs {
				path, err := generator.GenerateFile(s, dir, opts)
				if err != nil {
					return fmt.Errorf("failed to generate %s: %w", s.Name, err)
				}
				cmd.Printf("Generated %s\n", path)
			}
			return nil
		},
	}
)

func init() {
	rootCmd.Flags().StringVarP(&inputDir, "input", "i", ".", "directory of the package containing the structs")
	rootCmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (default: the input directory)")
	rootCmd.Flags().StringVar(&modelImport, "import", "", "import path of the input package, needed with -o")
	rootCmd.Flags().StringSliceVar(&include, "include", nil, "struct name patterns to generate (default: all exported)")
	rootCmd.Flags().StringSliceVar(&exclude, "exclude", nil, "struct name patterns to skip, e.g. 'Internal*'")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
