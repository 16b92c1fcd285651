package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"clash-rulesync/internal/constant"
	"clash-rulesync/internal/dto"
	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/pkg/apperr"
	"clash-rulesync/internal/pkg/logger"
	"clash-rulesync/pkg/ruletext"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a RuleStore over two strings.
type memStore struct {
	set     entity.RuleSet
	readErr error
	saves   int
}

func (m *memStore) Ping(ctx context.Context) error { return nil }

func (m *memStore) AddRule(ctx context.Context, value string, c entity.Classification, mt entity.MatchType) error {
	updated, err := ruletext.Append(m.set.Text(c), mt, value)
	if err != nil {
		return err
	}
	m.set.SetText(c, updated)
	return nil
}

func (m *memStore) GetAllRules(ctx context.Context) entity.RuleSet {
	if m.readErr != nil {
		return entity.RuleSet{}
	}
	return m.set
}

func (m *memStore) ReadAll(ctx context.Context) (entity.RuleSet, error) {
	return m.set, m.readErr
}

func (m *memStore) SaveRules(ctx context.Context, proxy, direct string) error {
	m.saves++
	m.set = entity.RuleSet{Proxy: proxy, Direct: direct}
	return nil
}

type recordingRefresher struct {
	mu      sync.Mutex
	calls   []string
	failFor map[string]bool
}

func (r *recordingRefresher) factory(target entity.RefreshTarget) ProviderRefresher {
	return refresherFunc(func(ctx context.Context, name string) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, target.Name+"|"+name)
		if r.failFor[target.Name] {
			return errors.New("connection refused")
		}
		return nil
	})
}

type refresherFunc func(ctx context.Context, name string) error

func (f refresherFunc) RefreshProvider(ctx context.Context, name string) error {
	return f(ctx, name)
}

func newSyncService(store *memStore, rec *recordingRefresher) IRuleSyncService {
	nop := logger.NewNopLogger()
	return NewRuleSyncService(store, NewRefreshService(rec.factory, nop), RuleSyncOptions{
		Targets: []entity.RefreshTarget{
			{Name: "local", Host: "127.0.0.1", Port: "9097"},
			{Name: "router", Host: "192.168.1.1", Port: "9090"},
		},
		Providers: map[entity.Classification]string{
			entity.ClassificationProxy:  constant.ProviderCloudProxy,
			entity.ClassificationDirect: constant.ProviderCloudDirect,
		},
	}, nop)
}

func TestAddRuleDerivesValueAndRefreshes(t *testing.T) {
	store := &memStore{set: entity.RuleSet{Proxy: "payload:\n", Direct: "payload:\n"}}
	rec := &recordingRefresher{failFor: map[string]bool{"router": true}}
	svc := newSyncService(store, rec)

	res, err := svc.AddRule(context.Background(), &dto.AddRuleRequest{
		Target:         "https://www.google.com/search",
		Classification: entity.ClassificationProxy,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.Rule{Classification: entity.ClassificationProxy, MatchType: entity.MatchDomainSuffix, Value: "google.com"}, res.Rule)
	assert.Equal(t, "payload:\n  - DOMAIN-SUFFIX,google.com\n", store.set.Proxy)

	require.Len(t, res.Refresh, 2)
	assert.Equal(t, dto.RefreshOutcome{Target: "local", Provider: constant.ProviderCloudProxy}, res.Refresh[0])
	assert.Equal(t, "router", res.Refresh[1].Target)
	assert.Equal(t, "connection refused", res.Refresh[1].Error)
	assert.ElementsMatch(t, []string{"local|" + constant.ProviderCloudProxy, "router|" + constant.ProviderCloudProxy}, rec.calls)
}

func TestAddRuleIPAddress(t *testing.T) {
	store := &memStore{set: entity.RuleSet{Direct: "payload:\n"}}
	svc := newSyncService(store, &recordingRefresher{})

	res, err := svc.AddRule(context.Background(), &dto.AddRuleRequest{
		Target:         "http://192.168.1.5:8080/",
		Classification: entity.ClassificationDirect,
	})
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.5/32", res.Rule.Value)
	assert.Equal(t, entity.MatchIPCIDR, res.Rule.MatchType)

	res, err = svc.AddRule(context.Background(), &dto.AddRuleRequest{
		Target:         "http://192.168.1.5:8080/",
		Classification: entity.ClassificationDirect,
		MatchType:      entity.MatchDstPort,
	})
	require.NoError(t, err)
	assert.Equal(t, "8080", res.Rule.Value)
}

func TestAddRuleDuplicate(t *testing.T) {
	store := &memStore{set: entity.RuleSet{Proxy: "payload:\n  - DOMAIN-SUFFIX,google.com\n"}}
	rec := &recordingRefresher{}
	svc := newSyncService(store, rec)

	_, err := svc.AddRule(context.Background(), &dto.AddRuleRequest{
		Target:         "google.com",
		Classification: entity.ClassificationProxy,
	})

	assert.ErrorIs(t, err, apperr.ErrRuleExists)
	assert.Empty(t, rec.calls)
}

func TestAddRuleRawValue(t *testing.T) {
	store := &memStore{set: entity.RuleSet{Proxy: "payload:\n"}}
	svc := newSyncService(store, &recordingRefresher{})

	res, err := svc.AddRule(context.Background(), &dto.AddRuleRequest{
		Target:         "10.0.0.0/8",
		Classification: entity.ClassificationProxy,
		MatchType:      entity.MatchIPCIDR,
		Raw:            true,
	})

	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/8", res.Rule.Value)
	assert.Contains(t, store.set.Proxy, "  - IP-CIDR,10.0.0.0/8\n")
}

func TestAddRuleRejectsUnknownMatchType(t *testing.T) {
	svc := newSyncService(&memStore{}, &recordingRefresher{})

	_, err := svc.AddRule(context.Background(), &dto.AddRuleRequest{
		Target:         "a.com",
		Classification: entity.ClassificationProxy,
		MatchType:      "DOMAIN-REGEX",
	})

	assert.Error(t, err)
}

func TestDeleteRule(t *testing.T) {
	store := &memStore{set: entity.RuleSet{
		Proxy:  "payload:\n  - DOMAIN,a.com\n  - DOMAIN,b.com\n",
		Direct: "payload:\n  - DOMAIN,d.com\n",
	}}
	rec := &recordingRefresher{}
	svc := newSyncService(store, rec)
	ctx := context.Background()

	res, err := svc.DeleteRule(ctx, entity.ClassificationProxy, entity.MatchDomain, "a.com")
	require.NoError(t, err)
	assert.Equal(t, "payload:\n  - DOMAIN,b.com\n", store.set.Proxy)
	assert.Equal(t, "payload:\n  - DOMAIN,d.com\n", store.set.Direct)
	assert.Len(t, res.Refresh, 2)

	_, err = svc.DeleteRule(ctx, entity.ClassificationProxy, entity.MatchDomain, "a.com")
	assert.ErrorIs(t, err, apperr.ErrRuleNotFound)
	assert.Equal(t, 1, store.saves)
}

func TestDeleteRuleKeepsPrefixSharingNeighbour(t *testing.T) {
	store := &memStore{set: entity.RuleSet{
		Proxy:  "payload:\n  - DOMAIN-SUFFIX,google.com.hk\n  - DOMAIN-SUFFIX,google.com",
		Direct: "payload:",
	}}
	svc := newSyncService(store, &recordingRefresher{})

	_, err := svc.DeleteRule(context.Background(), entity.ClassificationProxy, entity.MatchDomainSuffix, "google.com")

	require.NoError(t, err)
	assert.Equal(t, "payload:\n  - DOMAIN-SUFFIX,google.com.hk\n", store.set.Proxy)
}

func TestDeleteRuleDoesNotWriteAfterFailedRead(t *testing.T) {
	store := &memStore{readErr: &apperr.TransportError{Op: "readfile", Message: "read file failed"}}
	svc := newSyncService(store, &recordingRefresher{})

	_, err := svc.DeleteRule(context.Background(), entity.ClassificationProxy, entity.MatchDomain, "a.com")

	assert.True(t, apperr.IsTransport(err))
	assert.Zero(t, store.saves)
}

func TestClearAllAndExport(t *testing.T) {
	store := &memStore{set: entity.RuleSet{Proxy: "payload:\n  - DOMAIN,a.com\n", Direct: "payload:\n"}}
	rec := &recordingRefresher{}
	svc := newSyncService(store, rec)
	ctx := context.Background()

	res, err := svc.ClearAll(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Refresh, 4)
	assert.Equal(t, "# Proxy rules\npayload: []\n\n# Direct rules\npayload: []", svc.Export(ctx))
}

func TestListRulesFiltersAndCounts(t *testing.T) {
	store := &memStore{set: entity.RuleSet{
		Proxy:  "payload:\n  - DOMAIN-SUFFIX,a.com\n  - DOMAIN-KEYWORD,goog\n",
		Direct: "payload:\n  - DOMAIN,d.com\n",
	}}
	svc := newSyncService(store, &recordingRefresher{})

	all := svc.ListRules(context.Background(), "")
	assert.Len(t, all.Rules, 3)
	assert.Equal(t, ruletext.Stats{Total: 2, Suffix: 1, Keyword: 1}, all.ProxyStats)
	assert.Equal(t, ruletext.Stats{Total: 1, Domain: 1}, all.DirectStats)

	direct := svc.ListRules(context.Background(), entity.ClassificationDirect)
	require.Len(t, direct.Rules, 1)
	assert.Equal(t, "d.com", direct.Rules[0].Value)
}

func TestFormatRulesOnlyTouchesSelectedDocument(t *testing.T) {
	store := &memStore{set: entity.RuleSet{
		Proxy:  "payload:\n-DOMAIN , a.com\n",
		Direct: "payload:\n-DOMAIN , d.com\n",
	}}
	svc := newSyncService(store, &recordingRefresher{})

	res, err := svc.FormatRules(context.Background(), entity.ClassificationProxy)

	require.NoError(t, err)
	assert.Equal(t, "payload:\n  - DOMAIN,a.com\n", store.set.Proxy)
	assert.Equal(t, "payload:\n-DOMAIN , d.com\n", store.set.Direct)
	assert.Len(t, res.Refresh, 2)
}

func TestNoTargetsMeansNoRefresh(t *testing.T) {
	store := &memStore{set: entity.RuleSet{Proxy: "payload:\n"}}
	nop := logger.NewNopLogger()
	svc := NewRuleSyncService(store, NewRefreshService(nil, nop), RuleSyncOptions{}, nop)

	res, err := svc.AddRule(context.Background(), &dto.AddRuleRequest{Target: "a.com", Classification: entity.ClassificationProxy})

	require.NoError(t, err)
	assert.Empty(t, res.Refresh)
}
