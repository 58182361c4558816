package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// TestCaseSearchRepository 测试用例全文检索
// 写入走 MQ 异步，查询在请求路径上同步执行
type TestCaseSearchRepository interface {
	Index(ctx context.Context, tc *models.TestCase) error
	Remove(ctx context.Context, testCaseID uint64) error
	Search(ctx context.Context, keyword string, size int) ([]TestCaseHit, error)
}

// TestCaseHit 检索命中结果
type TestCaseHit struct {
	TestCaseID uint64  `json:"test_case_id"`
	Seq        uint64  `json:"seq"`
	FolderID   uint64  `json:"folder_id"`
	Title      string  `json:"title"`
	Score      float64 `json:"score"`
}

// caseDocument 写入 ES 的文档结构
type caseDocument struct {
	Seq          uint64 `json:"seq"`
	FolderID     uint64 `json:"folder_id"`
	Title        string `json:"title"`
	Precondition string `json:"precondition"`
	Steps        string `json:"steps"`
	Expected     string `json:"expected"`
}

type testCaseSearchRepository struct {
	client *elasticsearch.Client
	index  string
}

// NewTestCaseSearchRepository 创建新的testCaseSearchRepository实例
func NewTestCaseSearchRepository(client *elasticsearch.Client, index string) TestCaseSearchRepository {
	return &testCaseSearchRepository{client: client, index: index}
}

func (r *testCaseSearchRepository) Index(ctx context.Context, tc *models.TestCase) error {
	doc := caseDocument{
		Seq:          tc.Seq,
		FolderID:     tc.FolderID,
		Title:        tc.Title,
		Precondition: tc.Precondition,
		Steps:        tc.Steps,
		Expected:     tc.Expected,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化用例文档失败: %w", err)
	}

	res, err := r.client.Index(
		r.index,
		bytes.NewReader(body),
		r.client.Index.WithDocumentID(strconv.FormatUint(tc.ID, 10)),
		r.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("写入用例索引失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("写入用例索引失败: %s", res.Status())
	}
	return nil
}

func (r *testCaseSearchRepository) Remove(ctx context.Context, testCaseID uint64) error {
	res, err := r.client.Delete(
		r.index,
		strconv.FormatUint(testCaseID, 10),
		r.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("删除用例索引失败: %w", err)
	}
	defer res.Body.Close()

	// 404 说明文档不存在，视为已删除
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("删除用例索引失败: %s", res.Status())
	}
	return nil
}

func (r *testCaseSearchRepository) Search(ctx context.Context, keyword string, size int) ([]TestCaseHit, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  keyword,
				"fields": []string{"title^3", "precondition", "steps", "expected"},
			},
		},
		"size": size,
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("序列化查询失败: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("查询用例索引失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("查询用例索引失败: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string       `json:"_id"`
				Score  float64      `json:"_score"`
				Source caseDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("解析检索结果失败: %w", err)
	}

	hits := make([]TestCaseHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		id, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			logger.Warn("检索结果包含非法文档ID", zap.String("id", h.ID))
			continue
		}
		hits = append(hits, TestCaseHit{
			TestCaseID: id,
			Seq:        h.Source.Seq,
			FolderID:   h.Source.FolderID,
			Title:      h.Source.Title,
			Score:      h.Score,
		})
	}
	return hits, nil
}
