package image

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anoixa/image-api/database/models"
	"github.com/anoixa/image-api/storage"
	"github.com/anoixa/image-api/utils"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// scanConcurrency 并发扫描的作用域数量
const scanConcurrency = 4

// ScopeReport 单个作用域的扫描结果
type ScopeReport struct {
	OwnerID  uuid.UUID
	Category models.Category
	// MissingBlobs 有记录但文件不存在
	MissingBlobs []string
	// OrphanBlobs 有文件但没有记录
	OrphanBlobs []string
}

// ScanReport 扫描汇总
type ScanReport struct {
	ScopesScanned  int
	Scopes         []ScopeReport
	RemovedRecords int
	RemovedBlobs   int
	RepairFailures int
	Duration       time.Duration
}

// MissingBlobCount 缺失文件总数
func (r *ScanReport) MissingBlobCount() int {
	n := 0
	for _, s := range r.Scopes {
		n += len(s.MissingBlobs)
	}
	return n
}

// OrphanBlobCount 孤儿文件总数
func (r *ScanReport) OrphanBlobCount() int {
	n := 0
	for _, s := range r.Scopes {
		n += len(s.OrphanBlobs)
	}
	return n
}

// ScanOrphans 比对记录与文件，repair 为 true 时删除缺失文件的记录和没有记录的文件
// 只扫描元数据表中出现过的作用域
func (s *Service) ScanOrphans(ctx context.Context, repair bool) (*ScanReport, error) {
	start := time.Now()

	scopes, err := s.repo.ListScopes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scopes: %w", err)
	}

	report := &ScanReport{ScopesScanned: len(scopes)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for _, scope := range scopes {
		scope := scope
		g.Go(func() error {
			sr, removedRecords, removedBlobs, failures, err := s.scanScope(gctx, scope.OwnerID, scope.Category, repair)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if len(sr.MissingBlobs) > 0 || len(sr.OrphanBlobs) > 0 {
				report.Scopes = append(report.Scopes, *sr)
			}
			report.RemovedRecords += removedRecords
			report.RemovedBlobs += removedBlobs
			report.RepairFailures += failures
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(report.Scopes, func(i, j int) bool {
		a, b := report.Scopes[i], report.Scopes[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.OwnerID.String() < b.OwnerID.String()
	})
	report.Duration = time.Since(start)
	return report, nil
}

func (s *Service) scanScope(ctx context.Context, ownerID uuid.UUID, category models.Category, repair bool) (*ScopeReport, int, int, int, error) {
	unlock := s.locks.Lock(scopeKey(ownerID, category))
	defer unlock()

	folder := category.Folder()
	scope := storage.ScopePath(folder, ownerID.String())

	blobs, err := s.storage.ListRegularEntries(ctx, scope)
	if err != nil && !errors.Is(err, storage.ErrNotExist) {
		return nil, 0, 0, 0, fmt.Errorf("failed to list %s: %w", scope, err)
	}
	records, err := s.repo.FileNames(ctx, ownerID, category)
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("failed to load records of %s: %w", scope, err)
	}

	blobSet := make(map[string]struct{}, len(blobs))
	for _, name := range blobs {
		blobSet[name] = struct{}{}
	}
	recordSet := make(map[string]struct{}, len(records))
	for _, name := range records {
		recordSet[name] = struct{}{}
	}

	sr := &ScopeReport{OwnerID: ownerID, Category: category}
	for _, name := range records {
		if _, ok := blobSet[name]; !ok {
			sr.MissingBlobs = append(sr.MissingBlobs, name)
		}
	}
	for _, name := range blobs {
		if _, ok := recordSet[name]; !ok {
			sr.OrphanBlobs = append(sr.OrphanBlobs, name)
		}
	}

	if !repair || (len(sr.MissingBlobs) == 0 && len(sr.OrphanBlobs) == 0) {
		return sr, 0, 0, 0, nil
	}
	defer s.invalidate(ctx, ownerID, category)

	removedRecords, removedBlobs, failures := 0, 0, 0
	for _, name := range sr.MissingBlobs {
		if _, err := s.repo.DeleteByFileName(ctx, name); err != nil {
			log.Printf("[OrphanScanner] Failed to delete record %s: %v", utils.SanitizeLogMessage(name), err)
			failures++
			continue
		}
		removedRecords++
	}
	for _, name := range sr.OrphanBlobs {
		err := s.storage.DeleteBlob(ctx, storage.BlobPath(folder, ownerID.String(), name))
		if err != nil && !errors.Is(err, storage.ErrNotExist) {
			log.Printf("[OrphanScanner] Failed to delete blob %s: %v", utils.SanitizeLogMessage(name), err)
			failures++
			continue
		}
		removedBlobs++
	}

	return sr, removedRecords, removedBlobs, failures, nil
}

// OrphanScanner 定期执行孤儿扫描
type OrphanScanner struct {
	service  *Service
	interval time.Duration
	repair   bool
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  atomic.Bool
}

// NewOrphanScanner 创建孤儿扫描器
func NewOrphanScanner(service *Service, interval time.Duration, repair bool) *OrphanScanner {
	return &OrphanScanner{
		service:  service,
		interval: interval,
		repair:   repair,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start 启动扫描器
func (s *OrphanScanner) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	ticker := time.NewTicker(s.interval)
	utils.SafeGo(func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runOnce()
			case <-s.stopCh:
				return
			}
		}
	})
	log.Printf("[OrphanScanner] Started with interval %v, repair=%v", s.interval, s.repair)
}

// Stop 停止扫描器并等待当前扫描结束
func (s *OrphanScanner) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	if s.started.Load() {
		<-s.done
	}
}

func (s *OrphanScanner) runOnce() {
	timeout := s.interval
	if timeout < time.Minute {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	report, err := s.service.ScanOrphans(ctx, s.repair)
	if err != nil {
		log.Printf("[OrphanScanner] Scan failed: %v", err)
		return
	}

	missing, orphans := report.MissingBlobCount(), report.OrphanBlobCount()
	if missing == 0 && orphans == 0 {
		utils.LogIfDevf("[OrphanScanner] %d scopes consistent (%v)", report.ScopesScanned, report.Duration)
		return
	}
	log.Printf("[OrphanScanner] Scanned %d scopes: %d records without file, %d files without record, removed %d records and %d files",
		report.ScopesScanned, missing, orphans, report.RemovedRecords, report.RemovedBlobs)
}
