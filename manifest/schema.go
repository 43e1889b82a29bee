package manifest

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pkg/errors"
)

// schema constrains a decoded manifest. Field names follow the json tags.
const schema = `
#Manifest: {
	runtime: {
		maxDepth:   int & >0
		safetyArea: int & >=0 & <maxDepth
	}
	log: {
		verbosity: int & >=-1
		file:      string
	}
	store: path: string & !=""
}
`

// Validate checks the manifest against the schema.
func (m *Manifest) Validate() error {
	ctx := cuecontext.New()
	def := ctx.CompileString(schema).LookupPath(cue.ParsePath("#Manifest"))
	if err := def.Err(); err != nil {
		return errors.Wrap(err, "compiling manifest schema")
	}
	v := def.Unify(ctx.Encode(m))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return errors.Wrap(err, "manifest")
	}
	return nil
}
