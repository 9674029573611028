package tinybasic

// arrayMarker separates the array namespace from scalars of the same name.
const arrayMarker = "("

// VariableRepository maps canonical names to variables.
type VariableRepository struct {
	vars map[string]*Variable
}

// NewVariableRepository returns an empty repository.
func NewVariableRepository() *VariableRepository {
	return &VariableRepository{vars: make(map[string]*Variable)}
}

// GetOrCreateVariable returns the scalar with the given name, creating it with
// the type's default value on first use.
func (r *VariableRepository) GetOrCreateVariable(name string) *Variable {
	key := CanonicalName(name)
	v, ok := r.vars[key]
	if !ok {
		v = newScalar(key)
		r.vars[key] = v
	}
	return v
}

// GetOrCreateArray returns the array with the given name. An array used
// before DIM gets every one of its dims subscripts bounded at 10.
func (r *VariableRepository) GetOrCreateArray(name string, dims int) (*Variable, error) {
	key := CanonicalName(name)
	if v, ok := r.vars[key+arrayMarker]; ok {
		return v, nil
	}
	bounds := make([]int, dims)
	for i := range bounds {
		bounds[i] = DefaultArrayBound
	}
	v, err := newArray(key, bounds)
	if err != nil {
		return nil, err
	}
	r.vars[key+arrayMarker] = v
	return v, nil
}

// DimensionArray creates an array with explicit upper bounds. An array that
// already exists, declared or implicit, cannot be dimensioned again.
func (r *VariableRepository) DimensionArray(name string, bounds []int) (*Variable, error) {
	key := CanonicalName(name)
	if _, ok := r.vars[key+arrayMarker]; ok {
		return nil, NewBASICError(RedimensionedArray)
	}
	v, err := newArray(key, bounds)
	if err != nil {
		return nil, err
	}
	r.vars[key+arrayMarker] = v
	return v, nil
}

// Lookup returns a scalar without creating it.
func (r *VariableRepository) Lookup(name string) (*Variable, bool) {
	v, ok := r.vars[CanonicalName(name)]
	return v, ok
}

// Remove deletes a scalar. DEF FN uses it to restore a parameter that did
// not exist before the call.
func (r *VariableRepository) Remove(name string) {
	delete(r.vars, CanonicalName(name))
}

// Put installs a scalar under its canonical name.
func (r *VariableRepository) Put(v *Variable) {
	r.vars[CanonicalName(v.Name)] = v
}

// Len returns the number of scalars and arrays.
func (r *VariableRepository) Len() int {
	return len(r.vars)
}

// Clear removes every variable.
func (r *VariableRepository) Clear() {
	clear(r.vars)
}
