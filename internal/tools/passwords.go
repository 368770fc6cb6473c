package tools

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/mdrzasync/internal/common"
)

// Encrypter turns a plaintext password into its stored form.
type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

// passwordColumn is the column of the password export holding the password.
const passwordColumn = 1

// EncryptPasswordFile rewrites a tab-separated password export in place,
// replacing the password column with its ciphertext. Only the first data row
// is touched unless all is set; the header and short rows are kept as they
// are. It returns the number of rows encrypted.
func EncryptPasswordFile(path string, enc Encrypter, all bool) (int, error) {
	rows, err := readTSV(path)
	if err != nil {
		return 0, err
	}

	n := 0
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) > passwordColumn {
			c, err := enc.Encrypt(rows[i][passwordColumn])
			if err != nil {
				return 0, fmt.Errorf("row %d: %w", i+1, err)
			}
			rows[i][passwordColumn] = c
			n++
		}
		if !all {
			break
		}
	}

	if err := writeTSV(path, rows); err != nil {
		return 0, err
	}
	return n, nil
}

func readTSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrParse, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrParse, path, io.ErrUnexpectedEOF)
	}
	return rows, nil
}

// writeTSV replaces path atomically via a temp file in the same directory.
func writeTSV(path string, rows [][]string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	w.Comma = '\t'
	if err := w.WriteAll(rows); err != nil {
		return errors.Join(err, tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if fi, statErr := os.Stat(path); statErr == nil {
		_ = os.Chmod(tmp.Name(), fi.Mode().Perm())
	}
	return os.Rename(tmp.Name(), path)
}
