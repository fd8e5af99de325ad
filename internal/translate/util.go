package translate

import (
	"github.com/tcompiler-project/backend/internal/perr"
	"github.com/tcompiler-project/backend/internal/types"
)

func sizeofOrErr(tr *Translator, t *types.Type) (uint64, error) {
	size, err := types.Sizeof(t)
	if err != nil {
		tr.errs.Add(perr.IRError(tr.file, "translate", err.Error()))
		return 0, err
	}
	return size, nil
}

func alignofOrErr(tr *Translator, t *types.Type) uint64 {
	align, err := types.Alignof(t)
	if err != nil {
		tr.errs.Add(perr.IRError(tr.file, "translate", err.Error()))
		return 1
	}
	return align
}
