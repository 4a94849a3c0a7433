package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

type fileAgent struct {
	path string
}

// NewFileAgentRepository keeps the snapshot as a JSON document at path.
func NewFileAgentRepository(path string) AgentRepository {
	return &fileAgent{
		path: path,
	}
}

func (that *fileAgent) Save(_ context.Context, snapshot *entity.AgentSnapshot) error {
	agentJSON, err := json.Marshal(snapshot)
	if err != nil {
		return errStorage("could not marshal agent", err)
	}

	dir := filepath.Dir(that.path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return errStorage("could not create agent directory", err)
	}

	// write next to the target and rename so a failed save never truncates the old agent
	tmp, err := os.CreateTemp(dir, filepath.Base(that.path)+".*.tmp")
	if err != nil {
		return errStorage("could not create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(agentJSON); err != nil {
		tmp.Close()
		return errStorage("could not write agent", err)
	}

	if err = tmp.Close(); err != nil {
		return errStorage("could not close agent file", err)
	}

	if err = os.Rename(tmp.Name(), that.path); err != nil {
		return errStorage("could not replace agent file", err)
	}

	return nil
}

func (that *fileAgent) Load(_ context.Context) (*entity.AgentSnapshot, error) {
	response, err := os.ReadFile(that.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errNotFound(that.path)
	}

	if err != nil {
		return nil, errStorage("could not read agent", err)
	}

	var snapshot entity.AgentSnapshot
	if err = json.Unmarshal(response, &snapshot); err != nil {
		return nil, errCorrupt(that.path, err)
	}

	return &snapshot, nil
}

func (that *fileAgent) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(that.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, errStorage("could not stat agent", err)
	}

	return true, nil
}
