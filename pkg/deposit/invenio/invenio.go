package invenio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hermes/pkg/cache"
	"github.com/matzehuels/hermes/pkg/config"
	herrors "github.com/matzehuels/hermes/pkg/errors"
	"github.com/matzehuels/hermes/pkg/httputil"
	"github.com/matzehuels/hermes/pkg/integrations"
	"github.com/matzehuels/hermes/pkg/model"
	"github.com/matzehuels/hermes/pkg/observability"
)

// Stage is the cache stage holding deposit snapshots.
const Stage = "deposit"

// Context paths used by the deposit steps.
var (
	CodeMetaPath = model.MustParsePath("codemeta")
	BasePath     = model.MustParsePath("deposit.invenio")
	SchemaPath   = BasePath.Key("requiredSchema")
	MetadataPath = BasePath.Key("depositionMetadata")
	RecordPath   = BasePath.Key("record")
)

// Options configure a Depositor.
type Options struct {
	// Token authenticates against the platform. Only Deposit needs it.
	Token string

	// HTTPCache caches the downloaded record schema. May be nil.
	HTTPCache *httputil.Cache

	// Hooks observe requests. Zero members are no-ops.
	Hooks observability.Hooks

	// Logger defaults to log.Default().
	Logger *log.Logger
}

// Depositor talks to one Invenio instance.
type Depositor struct {
	client *integrations.Client
	cfg    config.InvenioConfig
	token  string
	logger *log.Logger
	now    func() time.Time
}

// New creates a Depositor for the instance described by cfg.
func New(cfg config.InvenioConfig, opts Options) *Depositor {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	httpCache := opts.HTTPCache
	if httpCache != nil {
		httpCache = httpCache.Namespace("invenio:")
	}
	client := integrations.NewClient(httpCache, map[string]string{"Accept": "application/json"})
	client.WithHooks(opts.Hooks)
	if opts.Token != "" {
		client.SetHeader("Authorization", "Bearer "+opts.Token)
	}
	return &Depositor{
		client: client,
		cfg:    cfg,
		token:  opts.Token,
		logger: opts.Logger,
		now:    time.Now,
	}
}

// Prepare downloads the record schema of the instance and stores it at
// deposit.invenio.requiredSchema.
func (d *Depositor) Prepare(ctx context.Context, dc *model.Context) error {
	u, err := d.url(d.cfg.SchemaPaths, "record")
	if err != nil {
		return err
	}

	var raw json.RawMessage
	err = d.client.Cached(ctx, "schema:"+u, false, &raw, func() error {
		return d.client.Get(ctx, u, &raw)
	})
	if err != nil {
		return fmt.Errorf("download record schema: %w", err)
	}

	schema := model.Null()
	if err := schema.UnmarshalJSON(raw); err != nil {
		return herrors.Wrap(herrors.ErrCodeInvalidValue, err, "record schema %s", u)
	}
	_, err = dc.Update(SchemaPath, schema)
	return err
}

// Map maps the CodeMeta document at "codemeta" onto deposition metadata,
// validates it and stores it at deposit.invenio.depositionMetadata. A
// snapshot is written to the deposit/invenio cache slot.
func (d *Depositor) Map(_ context.Context, dc *model.Context) (Metadata, error) {
	codemeta, err := dc.Get(CodeMetaPath)
	if err != nil {
		return Metadata{}, err
	}
	m, err := FromCodeMeta(codemeta, d.cfg, d.now())
	if err != nil {
		return Metadata{}, err
	}
	if err := Validate(m); err != nil {
		return Metadata{}, err
	}

	v, err := toValue(m)
	if err != nil {
		return Metadata{}, err
	}
	if _, err := dc.Update(MetadataPath, v); err != nil {
		return Metadata{}, err
	}
	if c := dc.Cache(); c != nil {
		if err := cache.NewScoped(c, Stage).Store(v, "invenio"); err != nil {
			return Metadata{}, err
		}
	}
	return m, nil
}

// Deposit creates a deposition with the metadata stored by Map, uploads
// files into its bucket and publishes it. The published record is stored
// at deposit.invenio.record.
func (d *Depositor) Deposit(ctx context.Context, dc *model.Context, files []string) (*Record, error) {
	if d.token == "" {
		return nil, herrors.New(herrors.ErrCodeUnauthorized, "no auth token given for deposition platform")
	}
	if len(files) == 0 {
		return nil, herrors.New(herrors.ErrCodeInvalidInput, "at least one file is required for an Invenio deposit")
	}
	for _, f := range files {
		if st, err := os.Stat(f); err != nil || !st.Mode().IsRegular() {
			return nil, herrors.New(herrors.ErrCodeInvalidInput, "deposit files must be regular files: %s", f)
		}
	}

	metadata, err := dc.Get(MetadataPath)
	if err != nil {
		return nil, fmt.Errorf("deposition metadata missing, run the mapping first: %w", err)
	}
	depositURL, err := d.url(d.cfg.APIPaths, "depositions")
	if err != nil {
		return nil, err
	}

	var dep deposition
	if err := d.client.PostJSON(ctx, depositURL, map[string]*model.Value{"metadata": metadata}, &dep); err != nil {
		return nil, fmt.Errorf("create deposition: %w", err)
	}
	d.logger.Debug("created deposition", "id", dep.ID, "url", dep.Links.HTML)

	// The bucket API accepts files above 100MB, unlike the files API.
	for _, f := range files {
		target := strings.TrimSuffix(dep.Links.Bucket, "/") + "/" + filepath.Base(f)
		if err := d.client.PutFile(ctx, target, f, nil); err != nil {
			return nil, fmt.Errorf("upload %s: %w", f, err)
		}
		d.logger.Debug("uploaded file", "file", filepath.Base(f))
	}

	var rec Record
	if err := d.client.PostJSON(ctx, dep.Links.Publish, nil, &rec); err != nil {
		return nil, fmt.Errorf("publish deposition %d: %w", dep.ID, err)
	}
	d.logger.Info("published record", "url", rec.Links.RecordHTML)

	v, err := toValue(rec)
	if err != nil {
		return nil, err
	}
	if _, err := dc.Update(RecordPath, v); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (d *Depositor) url(paths map[string]string, name string) (string, error) {
	p, ok := paths[name]
	if !ok || p == "" {
		return "", herrors.New(herrors.ErrCodeInvalidConfig, "no %s path configured for %s", name, d.cfg.SiteURL)
	}
	return strings.TrimSuffix(d.cfg.SiteURL, "/") + "/" + strings.TrimPrefix(p, "/"), nil
}

// toValue converts a JSON-tagged struct into a Value, keeping field order.
func toValue(x any) (*model.Value, error) {
	data, err := json.Marshal(x)
	if err != nil {
		return nil, err
	}
	v := model.Null()
	if err := v.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return v, nil
}
