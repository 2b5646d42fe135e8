// This file contains the IngestRun struct and its members. An IngestRun is the record of one scene going through the
// pipeline: how its nodes were grouped, which representatives were sent to export, and what the export workers reported.

// When interacting with MongoDB, bson tags are used to specify the field names in the database.
// When interacting with the host plugin and export workers (json-based ampq), json tags are used.

package ingest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jr-dreamview/ingest-bulk/internal/grouping"
)

// Run statuses
const (
	StatusPartitioned = iota
	StatusExporting
	StatusComplete
	StatusFailed
)

var statusNames = map[int]string{
	StatusPartitioned: "partitioned",
	StatusExporting:   "exporting",
	StatusComplete:    "complete",
	StatusFailed:      "failed",
}

// StatusName returns a readable name for a run status.
func StatusName(status int) string {
	if name, ok := statusNames[status]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", status)
}

// IngestRun represents the grouping and export of one scene
type IngestRun struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OperatorID primitive.ObjectID `bson:"operator_id" json:"operator_id"`
	Status     int                `bson:"status" json:"status"`
	ScenePath  string             `bson:"scene_path" json:"scene_path"`
	WorkOrder  string             `bson:"work_order,omitempty" json:"work_order,omitempty"`
	NodeCount  int                `bson:"node_count" json:"node_count"`

	Groups     []Group             `bson:"groups" json:"groups"`
	Leftover   []string            `bson:"leftover" json:"leftover"`
	NearMisses []grouping.NearMiss `bson:"near_misses,omitempty" json:"near_misses,omitempty"`
	Exports    []Export            `bson:"exports" json:"exports"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Group is a family of interchangeable nodes. Only Representative is exported.
type Group struct {
	Key            string   `bson:"key" json:"key"`
	Members        []string `bson:"members" json:"members"`
	Representative string   `bson:"representative" json:"representative"`
}

// Export is one export job: a representative node to be written to its own asset file.
type Export struct {
	JobID        string `bson:"job_id" json:"job_id"`
	AssetName    string `bson:"asset_name" json:"asset_name"`
	OriginalNode string `bson:"original_node" json:"original_node"`
	// Instances is the number of scene nodes the asset stands for.
	Instances int    `bson:"instances" json:"instances"`
	FilePath  string `bson:"file_path,omitempty" json:"file_path,omitempty"`
	Error     string `bson:"error,omitempty" json:"error,omitempty"`
	Done      bool   `bson:"done" json:"done"`
}

// NewIngestRun builds a run from a partitioning result. Groups and leftovers are stored in natural order and one export
// job is created per representative.
func NewIngestRun(operatorID primitive.ObjectID, scenePath, workOrder string, result *grouping.Result, nearMisses []grouping.NearMiss) *IngestRun {
	now := time.Now().UTC()
	run := &IngestRun{
		OperatorID: operatorID,
		Status:     StatusPartitioned,
		ScenePath:  scenePath,
		WorkOrder:  workOrder,
		NodeCount:  result.Count(),
		Groups:     []Group{},
		Leftover:   []string{},
		NearMisses: nearMisses,
		Exports:    []Export{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	for _, key := range result.Keys() {
		members := result.Members(key)
		group := Group{Key: key, Members: make([]string, len(members))}
		for i, m := range members {
			group.Members[i] = m.Name()
		}
		run.Groups = append(run.Groups, group)
	}
	for _, node := range result.SortedLeftover() {
		run.Leftover = append(run.Leftover, node.Name())
	}

	representatives := map[string]string{}
	for _, rep := range result.Representatives() {
		asset := rep.Key
		if asset == "" {
			asset = rep.Node.Name()
		} else {
			representatives[rep.Key] = rep.Node.Name()
		}
		run.Exports = append(run.Exports, Export{
			JobID:        uuid.NewString(),
			AssetName:    asset,
			OriginalNode: rep.Node.Name(),
			Instances:    rep.Size,
		})
	}
	for i := range run.Groups {
		run.Groups[i].Representative = representatives[run.Groups[i].Key]
	}
	return run
}

// Pending returns the number of export jobs that have not reported back.
func (r *IngestRun) Pending() int {
	pending := 0
	for _, e := range r.Exports {
		if !e.Done {
			pending++
		}
	}
	return pending
}

// Failed returns the export jobs that reported an error.
func (r *IngestRun) Failed() []Export {
	var failed []Export
	for _, e := range r.Exports {
		if e.Done && e.Error != "" {
			failed = append(failed, e)
		}
	}
	return failed
}

// WriteReport writes the audit dump of the run: groups with their members, leftovers, then the near misses that need a
// manual look.
func (r *IngestRun) WriteReport(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Scene: %s\nStatus: %s\nNodes: %d, groups: %d, leftovers: %d, exports: %d\n\n",
		r.ScenePath, StatusName(r.Status), r.NodeCount, len(r.Groups), len(r.Leftover), len(r.Exports))

	sb.WriteString("==========\n\nMatched nodes:\n\n")
	for _, g := range r.Groups {
		sb.WriteString(g.Key + "\n")
		for _, m := range g.Members {
			sb.WriteString("\t" + m + "\n")
		}
	}
	if len(r.Leftover) > 0 {
		sb.WriteString(grouping.LeftoverKey + "\n")
		for _, m := range r.Leftover {
			sb.WriteString("\t" + m + "\n")
		}
	}
	sb.WriteString("==========\n")

	if len(r.NearMisses) > 0 {
		sb.WriteString("\nSimilar nodes:\n\n")
		for _, nm := range r.NearMisses {
			fmt.Fprintf(&sb, "\t%s <-> %s (%.2f)\n", nm.First, nm.Second, nm.Similarity)
		}
	}

	if failed := r.Failed(); len(failed) > 0 {
		sb.WriteString("\nFailed exports:\n\n")
		for _, e := range failed {
			fmt.Fprintf(&sb, "\t%s: %s\n", e.AssetName, e.Error)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// Report returns the audit dump as a string.
func (r *IngestRun) Report() string {
	var sb strings.Builder
	_ = r.WriteReport(&sb)
	return sb.String()
}
