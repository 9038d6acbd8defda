package importer

import (
	"fmt"

	"elnimport/internal/chem"
	"elnimport/pkg/domain"
)

// MoleculeResolver finds or creates the molecule for a sample structure.
type MoleculeResolver interface {
	Resolve(tx domain.Transaction, molfile string) (domain.Molecule, error)
}

// MoleculeResolverFunc adapts a function to MoleculeResolver.
type MoleculeResolverFunc func(tx domain.Transaction, molfile string) (domain.Molecule, error)

// Resolve implements MoleculeResolver.
func (f MoleculeResolverFunc) Resolve(tx domain.Transaction, molfile string) (domain.Molecule, error) {
	return f(tx, molfile)
}

// FingerprintResolver matches molecules by molfile fingerprint.
type FingerprintResolver struct{}

// Resolve returns the molecule with the molfile's fingerprint, creating it when absent.
func (FingerprintResolver) Resolve(tx domain.Transaction, molfile string) (domain.Molecule, error) {
	fp, err := chem.Fingerprint(molfile)
	if err != nil {
		return domain.Molecule{}, domain.ValidationError{Entity: domain.EntityMolecule, Field: "molfile", Message: err.Error()}
	}
	if m, ok := tx.FindMoleculeByFingerprint(fp); ok {
		return m, nil
	}
	m, err := tx.Molecules().Create(domain.Molecule{Fingerprint: fp, Molfile: molfile})
	if err != nil {
		return domain.Molecule{}, fmt.Errorf("create molecule: %w", err)
	}
	return m, nil
}
