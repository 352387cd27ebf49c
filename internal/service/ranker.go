package service

import (
	"sort"
	"time"

	"github.com/unibeninterns/server2-v2-sub000/internal/model"
	"github.com/unibeninterns/server2-v2-sub000/internal/repository"
)

// reviewerCandidate 候选评审员及其工作量
type reviewerCandidate struct {
	user     model.User
	workload repository.ReviewerWorkload
}

// rankCandidates 常规指派排序：
// (进行中评审数, 历史调解数, 评审员 ID) 升序。
// ID 兜底保证结果可复现，排序本身无随机性。
func rankCandidates(cands []reviewerCandidate) []reviewerCandidate {
	out := make([]reviewerCandidate, len(cands))
	copy(out, cands)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.workload.Pending != b.workload.Pending {
			return a.workload.Pending < b.workload.Pending
		}
		if a.workload.Reconciliation != b.workload.Reconciliation {
			return a.workload.Reconciliation < b.workload.Reconciliation
		}
		return a.user.UserID < b.user.UserID
	})
	return out
}

// rankForReconciliation 调解指派排序：
// 有已完成评审经历者优先（经验优先）；若无人有经历，退化为仅按工作量排序。
func rankForReconciliation(cands []reviewerCandidate) []reviewerCandidate {
	experienced := make([]reviewerCandidate, 0, len(cands))
	fresh := make([]reviewerCandidate, 0, len(cands))
	for _, c := range cands {
		if c.workload.Completed > 0 {
			experienced = append(experienced, c)
		} else {
			fresh = append(fresh, c)
		}
	}

	if len(experienced) == 0 {
		// 无人有完成记录：仅按进行中工作量排序
		out := make([]reviewerCandidate, len(cands))
		copy(out, cands)
		sort.Slice(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if a.workload.Pending != b.workload.Pending {
				return a.workload.Pending < b.workload.Pending
			}
			return a.user.UserID < b.user.UserID
		})
		return out
	}

	return append(rankCandidates(experienced), rankCandidates(fresh)...)
}

// selectDiverse 多样性优先选取：
// 先在已排序候选中为每个不同学院取最优一人；
// 不足 n 且学院已取尽时，再按排序补齐剩余名额（跳过已选者）。
func selectDiverse(ranked []reviewerCandidate, n int) []reviewerCandidate {
	selected := make([]reviewerCandidate, 0, n)
	seenFaculty := make(map[string]bool)
	seenUser := make(map[string]bool)

	for _, c := range ranked {
		if len(selected) >= n {
			return selected
		}
		fid := ""
		if c.user.FacultyID != nil {
			fid = *c.user.FacultyID
		}
		if seenFaculty[fid] {
			continue
		}
		seenFaculty[fid] = true
		seenUser[c.user.UserID] = true
		selected = append(selected, c)
	}

	// 学院取尽仍不足：忽略学院约束补齐
	for _, c := range ranked {
		if len(selected) >= n {
			break
		}
		if seenUser[c.user.UserID] {
			continue
		}
		seenUser[c.user.UserID] = true
		selected = append(selected, c)
	}
	return selected
}

// addBusinessDays 从 t 起顺延 n 个工作日（逐日步进，跳过周六周日；不考虑节假日）。
// 周末起算时从次日开始推进，与周中规则一致。
func addBusinessDays(t time.Time, n int) time.Time {
	d := t
	for added := 0; added < n; {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return d
}
