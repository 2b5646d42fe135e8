// This file contains the expected structure of incoming requests to the API. These structs are used to
// validate incoming requests, provide a consistent interface for handling requests, and to pass data to the
// appropriate handlers.

// Note that all structs are independent of the user id. This is because the user id is extracted from the JWT token.
// The SceneManifest is also the body of the messages the host plugin publishes to the 'partition-in' queue.

package common

import (
	"github.com/jr-dreamview/ingest-bulk/internal/scenegraph"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
}

type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type UpdateUsernameRequest struct {
	Password    string `json:"password" validate:"required"`
	NewUsername string `json:"new_username" validate:"required,min=3,max=64"`
}

// SceneManifest lists the top-level nodes of a scene, as dumped by the host plugin.
type SceneManifest struct {
	ScenePath string               `json:"scene_path" validate:"required"`
	WorkOrder string               `json:"work_order"`
	Nodes     []*scenegraph.Object `json:"nodes" validate:"required,min=1,dive,required,manifestNode"`
}

// Roots returns the manifest nodes as scene graph roots.
func (m *SceneManifest) Roots() []scenegraph.Node {
	return scenegraph.Objects(m.Nodes)
}

type GetRunRequest struct {
	RunID string `params:"run_id" validate:"required,len=24,hexadecimal"`
}

type GetQueuePositionRequest struct {
	QueueID string `query:"queueid" validate:"required,oneof=queue_list partition_list export_list"`
	RunID   string `query:"id" validate:"required,len=24,hexadecimal"`
}
