package sub

type Cache struct {
	Size int `env:"default=128"`
}
