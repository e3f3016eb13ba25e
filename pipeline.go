package dampbn

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bodgit/dampbn/metadata"
	_ "github.com/bodgit/dampbn/pcx"
	"github.com/bodgit/dampbn/pic"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
)

const (
	picExtension   = ".pic"
	previewSuffix  = "_converted.png"
	defaultWorkers = 4
	maxSourceSize  = 64 << (10 * 2)
)

var extensions = map[string]struct{}{
	".bmp":  {},
	".gif":  {},
	".jpeg": {},
	".jpg":  {},
	".pcx":  {},
	".png":  {},
}

func isImage(file string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(file))]
	return ok
}

func (d *DamPBN) findImages(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	info, err := os.Stat(base)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, errors.Errorf("%s: not a directory", base)
	}

	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.Mode().IsDir() {
				// Only the top directory is converted
				if file != base {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore any hidden files, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' {
				return nil
			}

			if !info.Mode().IsRegular() || !isImage(file) {
				return nil
			}

			if info.Size() > maxSourceSize {
				d.logger.Printf("Skipping \"%s\", too big\n", file)
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func cacheKey(o pic.Options, r metadata.Record) string {
	return fmt.Sprintf("%s,name=%q,category=%d", o, r.Name, r.Category)
}

// Write b to file in one go, via a temporary file so a failure never leaves
// a truncated picture behind
func writeFile(file string, b []byte) error {
	f, err := os.CreateTemp(filepath.Dir(file), "."+filepath.Base(file)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(b); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(f.Name(), file)
}

func (d *DamPBN) writePreview(file string, a *pic.Asset) error {
	b := new(bytes.Buffer)
	if err := png.Encode(b, a.Image()); err != nil {
		return err
	}
	return writeFile(file, b.Bytes())
}

// Convert a single image, anything wrong with the image itself is recorded
// in the report rather than returned
func (d *DamPBN) convertFile(file, dir string, table *metadata.Table, o pic.Options, report *Report) error {
	d.logger.Printf("Processing \"%s\"\n", file)

	src, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	r := table.Lookup(filepath.Base(file))
	key := cacheKey(o, r)
	sum := sha1.Sum(src)
	sha := fmt.Sprintf("%X", sum[:])

	var b []byte
	if d.db != nil {
		if b, err = d.db.FindAsset(sha, key); err != nil {
			return err
		}
	}
	cached := b != nil

	var a *pic.Asset
	if !cached {
		m, _, err := image.Decode(bytes.NewReader(src))
		if err != nil {
			d.logger.Printf("Skipping \"%s\": %v\n", file, err)
			report.skip(file, err)
			return nil
		}

		if a, err = pic.NewAsset(m, r, &o); err != nil {
			d.logger.Printf("Skipping \"%s\": %v\n", file, err)
			report.skip(file, err)
			return nil
		}

		if b, err = a.MarshalBinary(); err != nil {
			return err
		}
	}

	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	if err := writeFile(filepath.Join(dir, name+picExtension), b); err != nil {
		return err
	}

	if d.db != nil && !cached {
		if err := d.db.AddAsset(sha, key, filepath.Base(file), b); err != nil {
			return err
		}
	}

	if o.Debug {
		if a == nil {
			if a, err = pic.DecodeAsset(bytes.NewReader(b)); err != nil {
				return err
			}
		}
		d.logger.Printf("\"%s\": %dx%d, %d colors, compressed %t, transparent %t, cached %t\n", file, a.Width, a.Height, a.Colors, a.Compressed, a.Transparent(), cached)
		if err := d.writePreview(filepath.Join(dir, name+previewSuffix), a); err != nil {
			return err
		}
	}

	report.converted(cached)

	return nil
}

func (d *DamPBN) convertWorker(ctx context.Context, in <-chan string, dir string, table *metadata.Table, o pic.Options, report *Report) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if err := d.convertFile(file, dir, table, o, report); err != nil {
				errc <- errors.Wrapf(err, "converting %s", file)
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Convert converts every image in the directory in and writes the pictures
// to the directory out. Images that can't be converted are listed in the
// returned report and don't stop the others from being converted. table may
// be nil in which case every picture gets the default metadata.
func (d *DamPBN) Convert(in, out string, table *metadata.Table, o pic.Options, workers int) (*Report, error) {
	src, err := filepath.Abs(in)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, err
	}

	if workers < 1 {
		workers = defaultWorkers
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := d.findImages(ctx, src)
	if err != nil {
		return nil, err
	}
	errcList = append(errcList, errc)

	report := new(Report)

	for i := 0; i < workers; i++ {
		errc, err := d.convertWorker(ctx, files, out, table, o, report)
		if err != nil {
			return nil, err
		}
		errcList = append(errcList, errc)
	}

	if err := waitForPipeline(errcList...); err != nil {
		return nil, err
	}

	sort.Slice(report.Skipped, func(i, j int) bool { return report.Skipped[i].File < report.Skipped[j].File })

	return report, nil
}
