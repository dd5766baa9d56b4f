// relay-adapt CLI - relayer tooling for shielded relay bundles.
//
// Example usage:
//
//	# Compute the adapt-parameter commitment for a bundle file
//	relay-adapt params bundle.radp
//
//	# Check that a bundle's transactions are bound to its ActionData
//	relay-adapt verify bundle.radp
//
//	# Parse a relay-request URI
//	relay-adapt parse-uri "relayadapt:0xdead...?value=100&require=true"
//
//	# Generate a relayer identity
//	relay-adapt keygen
//
//	# Execute a bundle against the in-memory reference world
//	relay-adapt simulate bundle.radp --config sim.yaml
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/holiman/uint256"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
	"github.com/suffix-labs/relay-adapt/pkg/api"
	"github.com/suffix-labs/relay-adapt/pkg/commit"
	"github.com/suffix-labs/relay-adapt/pkg/request"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "params":
		cmdParams()
	case "verify":
		cmdVerify()
	case "parse-uri":
		cmdParseURI()
	case "keygen":
		cmdKeygen()
	case "simulate":
		cmdSimulate()
	case "version":
		cmdVersion()
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`relay-adapt - relayer tooling for shielded relay bundles

Usage:
  relay-adapt <command> [options]

Commands:
  params <bundle.radp>         Compute the adapt-parameter commitment
  verify <bundle.radp>         Check the bundle's commitment binding
  parse-uri <uri>              Parse a relay-request URI
  keygen                       Generate a relayer identity
  simulate <bundle.radp>       Execute a bundle against the reference world
  version                      Show version information
  help                         Show this help message

Simulate options:
  --config <file>              YAML simulator config
  --caller <hex address>       Caller identity (default: a fixed relayer)
  --value <decimal>            Native value attached to the relay
  --gas <n>                    Resource budget (default 1000000)`)
}

func cmdVersion() {
	fmt.Println("relay-adapt v0.1.0")
	fmt.Println("Adapt layer for shielded transfer batches with bound follow-up calls")
}

func cmdParams() {
	bundleBytes := readBundleArg()

	params, err := api.ComputeParams(bundleBytes)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("%x\n", params)
}

func cmdVerify() {
	bundleBytes := readBundleArg()

	mismatch, err := api.VerifyBundle(bundleBytes)
	if err != nil {
		fatal(err)
	}
	if mismatch >= 0 {
		fmt.Fprintf(os.Stderr, "transaction %d is not bound to this bundle's action data\n", mismatch)
		os.Exit(1)
	}
	fmt.Println("bundle binding OK")
}

func cmdParseURI() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Error: URI argument required")
		fmt.Fprintln(os.Stderr, "Usage: relay-adapt parse-uri <uri>")
		os.Exit(1)
	}

	actionData, err := request.Parse(os.Args[2])
	if err != nil {
		fatal(fmt.Errorf("failed to parse URI: %w", err))
	}

	fmt.Println("Relay request:")
	fmt.Printf("  Nonce:          %s\n", actionData.Nonce.Hex())
	fmt.Printf("  RequireSuccess: %v\n", actionData.RequireSuccess)
	fmt.Printf("  MinGas:         %d\n", actionData.MinGas)
	fmt.Printf("  Calls:          %d\n\n", len(actionData.Calls))

	for i := range actionData.Calls {
		call := &actionData.Calls[i]
		fmt.Printf("Call %d:\n", i)
		fmt.Printf("  To:    %s\n", call.To.Hex())
		fmt.Printf("  Value: %s\n", call.CallValue().Dec())
		if len(call.Data) > 0 {
			fmt.Printf("  Data:  %s\n", hex.EncodeToString(call.Data))
		}
		fmt.Println()
	}

	fmt.Printf("Re-encoded URI:\n%s\n", request.Encode(actionData))
}

func cmdKeygen() {
	key, err := commit.GeneratePrivateKey()
	if err != nil {
		fatal(err)
	}
	pub := key.PublicKey()
	fmt.Printf("Private key: %s\n", key.Encode())
	fmt.Printf("Public key:  %x\n", pub.SerializeCompressed())
	fmt.Printf("Address:     %s (%s)\n", pub.EncodeAddress(), pub.Address().Hex())
}

func cmdSimulate() {
	bundleBytes := readBundleArg()

	cfg := api.DefaultConfig()
	caller := adapt.HexToAddress("0x00000000000000000000000000000000ada90001")
	value := uint256.NewInt(0)
	gas := uint64(1000000)

	args := os.Args[3:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			i++
			loaded, err := api.LoadConfig(flagValue(args, i, "--config"))
			if err != nil {
				fatal(err)
			}
			cfg = loaded
		case "--caller":
			i++
			caller = adapt.HexToAddress(flagValue(args, i, "--caller"))
		case "--value":
			i++
			v, err := uint256.FromDecimal(flagValue(args, i, "--value"))
			if err != nil {
				fatal(fmt.Errorf("invalid --value: %w", err))
			}
			value = v
		case "--gas":
			i++
			g, err := strconv.ParseUint(flagValue(args, i, "--gas"), 10, 64)
			if err != nil {
				fatal(fmt.Errorf("invalid --gas: %w", err))
			}
			gas = g
		default:
			fatal(fmt.Errorf("unknown option %q", args[i]))
		}
	}

	sim, err := api.NewSimulator(cfg, nil)
	if err != nil {
		fatal(err)
	}

	// The caller needs funds to attach value.
	if !value.IsZero() {
		sim.World.MintNative(caller, value)
	}

	results, err := sim.Relay(caller, value, gas, bundleBytes)
	if err != nil {
		fatal(fmt.Errorf("relay failed: %w", err))
	}

	fmt.Println("relay OK")
	for i, res := range results {
		fmt.Printf("  call %d: success=%v returned=%x\n", i, res.Success, res.Returned)
	}
	fmt.Printf("  notes minted: %d\n", len(sim.World.Notes()))
}

func readBundleArg() []byte {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Error: bundle file argument required")
		os.Exit(1)
	}
	data, err := os.ReadFile(os.Args[2])
	if err != nil {
		fatal(err)
	}
	return data
}

func flagValue(args []string, i int, name string) string {
	if i >= len(args) {
		fatal(fmt.Errorf("%s requires a value", name))
	}
	return args[i]
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
