// Command dxbc2spirv translates compiled Direct3D shader bytecode (DXBC)
// containers to SPIR-V modules.
//
// Usage:
//
//	dxbc2spirv translate -o shader.spv shader.dxbc
//	dxbc2spirv info shader.dxbc
package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dxbcspirv/dxbcspirv"
	"github.com/dxbcspirv/dxbcspirv/compiler"
	"github.com/dxbcspirv/dxbcspirv/dxbc"
)

func main() {
	root := &cobra.Command{
		Use:           "dxbc2spirv",
		Short:         "Translate DXBC shader bytecode to SPIR-V",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(translateCmd(), infoCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func translateCmd() *cobra.Command {
	var (
		output    string
		debugInfo bool
		deferKill bool
	)
	cmd := &cobra.Command{
		Use:   "translate [flags] <input.dxbc>",
		Short: "Compile a DXBC container to a SPIR-V module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			opts := compiler.DefaultOptions()
			opts.Debug = debugInfo
			opts.DeferKill = deferKill
			result, err := dxbcspirv.CompileWithOptions(data, opts)
			if err != nil {
				return err
			}
			for _, w := range result.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", w)
			}

			spv := make([]byte, len(result.Words)*4)
			for i, w := range result.Words {
				binary.LittleEndian.PutUint32(spv[i*4:], w)
			}
			if output == "" {
				_, err = os.Stdout.Write(spv)
				return err
			}
			if err := os.WriteFile(output, spv, 0o644); err != nil {
				return err
			}
			fmt.Printf("Compiled %s to %s (%d words, %d bindings)\n",
				args[0], output, len(result.Words), len(result.Bindings))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&debugInfo, "debug", false, "emit OpName debug names for register variables")
	cmd.Flags().BoolVar(&deferKill, "defer-kill", false, "lower discard to demote-to-helper-invocation")
	return cmd
}

func infoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <input.dxbc>",
		Short: "Dump a container's decoded instruction stream and binding list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			module, err := dxbcspirv.Parse(data)
			if err != nil {
				return err
			}
			fmt.Printf("program: %s %d.%d\n",
				stageName(module.Version.Type), module.Version.Major, module.Version.Minor)
			printSignature("input", module.Input)
			printSignature("output", module.Output)
			printSignature("patch-constant", module.PatchConstant)

			fmt.Printf("instructions: %d\n", len(module.Instructions))
			for i, inst := range module.Instructions {
				fmt.Printf("  %4d: opcode=%d class=%d dst=%d src=%d imm=%d\n",
					i, inst.Opcode, inst.Class, len(inst.Dst), len(inst.Src), len(inst.Imm))
			}

			result, err := dxbcspirv.CompileModule(module, compiler.DefaultOptions())
			if err != nil {
				return err
			}
			fmt.Printf("bindings: %d\n", len(result.Bindings))
			for _, b := range result.Bindings {
				fmt.Printf("  slot=%d kind=%d\n", b.Slot, b.Kind)
			}
			return nil
		},
	}
	return cmd
}

func printSignature(name string, t *dxbc.SignatureTable) {
	if len(t.Elements) == 0 {
		return
	}
	fmt.Printf("%s signature: %d element(s)\n", name, len(t.Elements))
	for _, e := range t.Elements {
		fmt.Printf("  %s%d reg=%d mask=%04b type=%d sv=%d\n",
			e.SemanticName, e.SemanticIndex, e.Register, e.Mask, e.ComponentType, e.SystemValue)
	}
}

func stageName(t dxbc.ProgramType) string {
	switch t {
	case dxbc.ProgramPixel:
		return "pixel"
	case dxbc.ProgramVertex:
		return "vertex"
	case dxbc.ProgramGeometry:
		return "geometry"
	case dxbc.ProgramHull:
		return "hull"
	case dxbc.ProgramDomain:
		return "domain"
	case dxbc.ProgramCompute:
		return "compute"
	default:
		return "unknown"
	}
}
