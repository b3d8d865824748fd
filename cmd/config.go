package cmd

import (
	"fmt"
	"os"

	pacv1 "github.com/djcass44/pacsync/pkg/api/v1"
	"k8s.io/apimachinery/pkg/util/yaml"
)

func readConfig(s string) (pacv1.Mirror, error) {
	f, err := os.Open(s)
	if err != nil {
		return pacv1.Mirror{}, err
	}
	defer f.Close()

	var config pacv1.Mirror
	if err := yaml.NewYAMLOrJSONDecoder(f, 4).Decode(&config); err != nil {
		return pacv1.Mirror{}, err
	}
	if config.APIVersion != pacv1.GroupVersion || config.Kind != pacv1.KindMirror {
		return pacv1.Mirror{}, fmt.Errorf("unsupported configuration: expected %s/%s but got %s/%s", pacv1.GroupVersion, pacv1.KindMirror, config.APIVersion, config.Kind)
	}
	return config, nil
}
