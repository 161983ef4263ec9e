package envnested

import "github.com/seitarof/gen-env/testdata/envnested/sub"

type Root struct {
	Name  string
	Child Child     `env:"nested"`
	Cache sub.Cache `env:"nested"`
	Plain Child
}

type Child struct {
	Leaf Leaf `env:"nested"`
	Port int  `env:"default=80"`
}

type Leaf struct {
	Path string `env:"rename=LEAF_PATH"`
}
