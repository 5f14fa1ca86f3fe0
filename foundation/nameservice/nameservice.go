// Package nameservice reads an actors folder and creates a name service
// lookup for the farmers, carriers and retailers recorded in the ledger.
package nameservice

import (
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"gopkg.in/yaml.v3"
)

// Actor is a participant in the supply chain.
type Actor struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Role string `yaml:"role" json:"role"`
}

// actorsFile is the layout of a yaml actors file.
type actorsFile struct {
	Actors []Actor `yaml:"actors"`
}

// NameService maintains a map of actors for name lookup.
type NameService struct {
	actors map[string]Actor
}

// New constructs a name service with the actors found in the root folder.
// Actors come from *.yaml and *.yml files. Every *.ecdsa key file adds an
// actor whose id is the key's address and whose name is the file name.
func New(root string) (*NameService, error) {
	ns := NameService{
		actors: make(map[string]Actor),
	}

	if root == "" {
		return &ns, nil
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		switch path.Ext(fileName) {
		case ".yaml", ".yml":
			return ns.loadYAML(fileName)

		case ".ecdsa":
			privateKey, err := crypto.LoadECDSA(fileName)
			if err != nil {
				return err
			}

			id := crypto.PubkeyToAddress(privateKey.PublicKey).Hex()
			ns.actors[id] = Actor{
				ID:   id,
				Name: strings.TrimSuffix(path.Base(fileName), ".ecdsa"),
				Role: "key",
			}
		}

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

func (ns *NameService) loadYAML(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}

	var af actorsFile
	if err := yaml.Unmarshal(data, &af); err != nil {
		return fmt.Errorf("decoding %s: %w", fileName, err)
	}

	for _, actor := range af.Actors {
		if actor.ID == "" {
			return fmt.Errorf("decoding %s: actor without id", fileName)
		}
		ns.actors[actor.ID] = actor
	}

	return nil
}

// Lookup returns the name for the specified actor id. The id itself is
// returned when the actor is unknown.
func (ns *NameService) Lookup(id string) string {
	actor, exists := ns.actors[id]
	if !exists || actor.Name == "" {
		return id
	}
	return actor.Name
}

// Actor returns the actor for the specified id.
func (ns *NameService) Actor(id string) (Actor, bool) {
	actor, exists := ns.actors[id]
	return actor, exists
}

// Copy returns a copy of the map of ids and actors.
func (ns *NameService) Copy() map[string]Actor {
	return maps.Clone(ns.actors)
}
