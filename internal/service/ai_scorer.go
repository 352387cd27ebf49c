package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/unibeninterns/server2-v2-sub000/internal/model"
)

// AIScorer AI 评分协作方接口
// 输出契约固定（十项评分 + 逐项说明），实现可替换：
// 接入真实评分模型时无需改动指派引擎与评分跟踪器
type AIScorer interface {
	GenerateReview(ctx context.Context, proposal *model.Proposal) (model.ScoreSet, model.CommentSet, error)
}

// stubBaselines 占位实现的基准分（约各项满分的七成）
var stubBaselines = map[model.Criterion]int{
	model.CriterionRelevance:                    7,
	model.CriterionOriginality:                  11,
	model.CriterionClarity:                      7,
	model.CriterionMethodology:                  11,
	model.CriterionLiteratureReview:             7,
	model.CriterionTeamComposition:              7,
	model.CriterionFeasibilityAndTimeline:       7,
	model.CriterionBudgetJustification:          7,
	model.CriterionExpectedOutcomes:             4,
	model.CriterionSustainabilityAndScalability: 4,
}

// stubScorer 占位 AI 评分器：
// 对各项基准分做 ±20% 随机扰动，并收敛到 [1, 满分]。
// 显式占位实现，不做任何文本理解。
type stubScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStubAIScorer 创建占位 AI 评分器
func NewStubAIScorer() AIScorer {
	return &stubScorer{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// newSeededStubScorer 固定种子版本，仅测试使用
func newSeededStubScorer(seed int64) AIScorer {
	return &stubScorer{rng: rand.New(rand.NewSource(seed))}
}

func (s *stubScorer) GenerateReview(_ context.Context, proposal *model.Proposal) (model.ScoreSet, model.CommentSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var scores model.ScoreSet
	comments := model.CommentSet{Criteria: make(map[string]string, len(model.CriterionOrder))}

	for _, c := range model.CriterionOrder {
		base := stubBaselines[c]
		max := model.CriterionMax[c]

		// ±20% 扰动后取整并收敛
		factor := 0.8 + s.rng.Float64()*0.4
		v := int(math.Round(float64(base) * factor))
		if v < 1 {
			v = 1
		}
		if v > max {
			v = max
		}
		scores.Set(c, v)
		comments.Criteria[string(c)] = fmt.Sprintf(
			"Automated preliminary assessment: scored %d of %d for %s based on baseline heuristics.",
			v, max, c,
		)
	}

	comments.Overall = fmt.Sprintf(
		"Automated preliminary review of %q. Total score %d/100. This score is generated by a placeholder heuristic and is intended only to seed the review pool alongside human assessments.",
		proposal.Title, scores.Total(),
	)

	return scores, comments, nil
}
