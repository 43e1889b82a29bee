// linkc - inspect, store and call compiled units
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/linkcore/lib/runtime"
	"github.com/chazu/linkcore/manifest"
	"github.com/chazu/linkcore/vm"
	"github.com/chazu/linkcore/vm/link"
	"github.com/chazu/linkcore/vm/unit"
)

func main() {
	verbosity := flag.Int("v", 0, "Log verbosity (overrides linkcore.toml)")
	configDir := flag.String("config", ".", "Directory to search upward for linkcore.toml")
	maxDepth := flag.Int("max-depth", 0, "Control stack limit (overrides linkcore.toml)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: linkc [options] <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  demo-unit <out>          Write a sample unit image\n")
		fmt.Fprintf(os.Stderr, "  inspect <unit>           Show a unit's constants, links and exports\n")
		fmt.Fprintf(os.Stderr, "  call <unit> <fn> [args]  Load a unit and call one of its functions\n")
		fmt.Fprintf(os.Stderr, "  store put <unit>         Add a unit image to the store\n")
		fmt.Fprintf(os.Stderr, "  store list               List stored units\n")
		fmt.Fprintf(os.Stderr, "  store get <hash> <out>   Write a stored unit to a file\n")
		fmt.Fprintf(os.Stderr, "  store call <hash> <fn> [args]  Call a function of a stored unit\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  linkc demo-unit demo.lcu\n")
		fmt.Fprintf(os.Stderr, "  linkc call demo.lcu add 1 2 3.5\n")
		fmt.Fprintf(os.Stderr, "  linkc -max-depth 100 call demo.lcu recurse 1000\n")
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	m, err := manifest.FindAndLoad(*configDir)
	if err != nil {
		fatal(err)
	}
	if m == nil {
		m = manifest.Default()
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			m.Log.Verbosity = *verbosity
		case "max-depth":
			m.SetMaxDepth(*maxDepth)
		}
	})
	if err := m.Validate(); err != nil {
		fatal(err)
	}
	commonlog.Configure(m.Log.Verbosity, m.LogFile())

	args := flag.Args()
	switch args[0] {
	case "demo-unit":
		need(args, 2)
		err = demoUnit(args[1])
	case "inspect":
		need(args, 2)
		err = inspect(args[1])
	case "call":
		need(args, 3)
		err = withRuntime(m, true, func(rt *runtime.Runtime) error {
			cb, err := rt.LoadFile(args[1])
			if err != nil {
				return err
			}
			return call(rt, cb, args[2], args[3:])
		})
	case "store":
		need(args, 2)
		err = withRuntime(m, false, func(rt *runtime.Runtime) error {
			return storeCommand(rt, args[1:])
		})
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func withRuntime(m *manifest.Manifest, noStore bool, fn func(*runtime.Runtime) error) error {
	cfg := runtime.ConfigFromManifest(m)
	cfg.NoStore = noStore
	rt, err := runtime.New(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

func demoUnit(path string) error {
	img := unit.New("demo")
	img.Constants = []unit.Constant{
		unit.Text("hello"),
		unit.Single(3.14159),
		unit.Double(3.14159),
		unit.Fixnum(42),
		unit.Char('λ'),
		{Kind: unit.KindNil},
		{Kind: unit.KindT},
	}
	img.Links = []string{"recurse", "+", "string-length", "count"}
	img.Exports = []unit.Export{
		{Name: "count", Entry: "list-count", MinArgs: 0, MaxArgs: link.Variadic},
		{Name: "add", Entry: "+", MinArgs: 0, MaxArgs: link.Variadic},
		{Name: "len", Entry: "string-length", MinArgs: 1, MaxArgs: 1},
		{Name: "recurse", Entry: "recurse", MinArgs: 1, MaxArgs: 1},
		{Name: "echo", Entry: "values", MinArgs: 0, MaxArgs: link.Variadic},
	}
	if err := unit.WriteFile(path, img); err != nil {
		return err
	}
	hash, err := unit.Hash(img)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%s)\n", path, hash)
	return nil
}

func inspect(path string) error {
	img, err := unit.ReadFile(path)
	if err != nil {
		return err
	}
	hash, err := unit.Hash(img)
	if err != nil {
		return err
	}
	cb, err := unit.NewLoader(nil, nil).Load(withoutExports(img))
	if err != nil {
		return err
	}

	fmt.Printf("unit %s (format %d)\n", img.Name, img.Version)
	fmt.Printf("hash %s\n", hash)
	fmt.Printf("\nconstants (%d):\n", cb.NumConstants())
	for i := 0; i < cb.NumConstants(); i++ {
		v := cb.Constant(i)
		fmt.Printf("  %3d  %-12s %s\n", i, vm.TagOf(v), v)
	}
	fmt.Printf("\nlinks (%d):\n", len(img.Links))
	for i, name := range img.Links {
		fmt.Printf("  %3d  %s\n", i, name)
	}
	fmt.Printf("\nexports (%d):\n", len(img.Exports))
	for _, exp := range img.Exports {
		fmt.Printf("  %-16s -> %-14s %s\n", exp.Name, exp.Entry, arity(exp.MinArgs, exp.MaxArgs))
	}
	return nil
}

// withoutExports lets inspect materialize constants without binding
// native entries.
func withoutExports(img *unit.Image) *unit.Image {
	c := *img
	c.Exports = nil
	return &c
}

func arity(min, max int) string {
	if max == link.Variadic {
		return fmt.Sprintf("(%d+ args)", min)
	}
	if min == max {
		return fmt.Sprintf("(%d args)", min)
	}
	return fmt.Sprintf("(%d..%d args)", min, max)
}

func call(rt *runtime.Runtime, cb *link.CodeBlock, fn string, raw []string) error {
	args := make([]vm.Value, len(raw))
	for i, s := range raw {
		v, err := parseArg(rt, s)
		if err != nil {
			return err
		}
		args[i] = v
	}
	results, err := rt.Call(cb, fn, args...)
	if err != nil {
		return err
	}
	fmt.Println(results)
	return nil
}

// parseArg reads an integer as a fixnum, a number with a point or exponent
// as a double float and anything else as a string.
func parseArg(rt *runtime.Runtime, s string) (vm.Value, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if v, ok := vm.TryFixnum(n); ok {
			return v, nil
		}
	}
	if strings.ContainsAny(s, ".eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return rt.Heap.AllocDoubleFloat(f), nil
		}
	}
	return rt.Heap.NewString(s), nil
}

func storeCommand(rt *runtime.Runtime, args []string) error {
	switch args[0] {
	case "put":
		need(args, 2)
		img, err := unit.ReadFile(args[1])
		if err != nil {
			return err
		}
		hash, err := rt.Store.Put(img)
		if err != nil {
			return err
		}
		fmt.Println(hash)
	case "list":
		entries, err := rt.Store.List()
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s  %-20s %6d bytes  %s\n", e.Hash, e.Name, e.Size, e.Created.Format("2006-01-02 15:04:05"))
		}
	case "get":
		need(args, 3)
		img, err := rt.Store.Get(args[1])
		if err != nil {
			return err
		}
		return unit.WriteFile(args[2], img)
	case "call":
		need(args, 3)
		cb, err := rt.LoadStored(args[1])
		if err != nil {
			return err
		}
		return call(rt, cb, args[2], args[3:])
	default:
		return fmt.Errorf("unknown store command %q", args[0])
	}
	return nil
}

func need(args []string, n int) {
	if len(args) < n {
		fmt.Fprintf(os.Stderr, "%s: missing arguments\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
