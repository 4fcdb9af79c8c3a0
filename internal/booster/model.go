package booster

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// modelFile mirrors the parts of XGBoost's JSON model schema (Booster.save_model
// with a .json suffix) that are needed for inference.
type modelFile struct {
	Learner learnerDoc `json:"learner"`
	Version []int      `json:"version"`
}

type learnerDoc struct {
	Attributes       map[string]string `json:"attributes"`
	FeatureNames     []string          `json:"feature_names"`
	FeatureTypes     []string          `json:"feature_types"`
	GradientBooster  gradientBooster   `json:"gradient_booster"`
	LearnerModelParm learnerModelParam `json:"learner_model_param"`
	Objective        objectiveDoc      `json:"objective"`
}

// gradientBooster covers both layouts: gbtree keeps the model at
// gradient_booster.model, dart nests it under gradient_booster.gbtree.model.
type gradientBooster struct {
	Name       string        `json:"name"`
	Model      *gbtreeModel  `json:"model"`
	GBTree     *gbtreeNested `json:"gbtree"`
	WeightDrop []float64     `json:"weight_drop"`
}

type gbtreeNested struct {
	Model gbtreeModel `json:"model"`
}

type gbtreeModel struct {
	Param    gbtreeModelParam `json:"gbtree_model_param"`
	Trees    []treeDoc        `json:"trees"`
	TreeInfo []int            `json:"tree_info"`
}

type gbtreeModelParam struct {
	NumTrees string `json:"num_trees"`
}

type learnerModelParam struct {
	BaseScore  string `json:"base_score"`
	NumClass   string `json:"num_class"`
	NumFeature string `json:"num_feature"`
	NumTarget  string `json:"num_target"`
}

type objectiveDoc struct {
	Name string `json:"name"`
}

type treeDoc struct {
	ID              int       `json:"id"`
	LeftChildren    []int     `json:"left_children"`
	RightChildren   []int     `json:"right_children"`
	SplitIndices    []int     `json:"split_indices"`
	SplitConditions []float64 `json:"split_conditions"`
	DefaultLeft     flagList  `json:"default_left"`
	SplitType       []int     `json:"split_type"`
	Categories      []int     `json:"categories"`
}

// flagList accepts default_left written either as 0/1 integers (XGBoost 1.x)
// or as booleans (XGBoost 2.x).
type flagList []bool

func (f *flagList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]bool, len(raw))
	for i, item := range raw {
		switch v := strings.TrimSpace(string(item)); v {
		case "true", "1":
			out[i] = true
		case "false", "0":
			out[i] = false
		default:
			return &strconv.NumError{Func: "default_left", Num: v, Err: strconv.ErrSyntax}
		}
	}
	*f = out
	return nil
}

// parseParam reads XGBoost's stringly-typed numeric parameters. Newer
// releases wrap vector-valued parameters in brackets, e.g. "[5E-1]".
func parseParam(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
