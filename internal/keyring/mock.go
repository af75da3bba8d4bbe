package keyring

type entry struct {
	service string
	key     string
}

// MockStore implements Store in memory for tests. Errors can be injected
// per operation.
type MockStore struct {
	data   map[entry]string
	getErr error
	setErr error
	delErr error
	sets   int
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{data: make(map[entry]string)}
}

func (m *MockStore) Get(service, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[entry{service, key}]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MockStore) Set(service, key, value string) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[entry{service, key}] = value
	return nil
}

func (m *MockStore) Delete(service, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, entry{service, key})
	return nil
}

// Has reports whether a secret is stored.
func (m *MockStore) Has(service, key string) bool {
	_, ok := m.data[entry{service, key}]
	return ok
}

// Sets returns how many Set calls were made, including failed ones.
func (m *MockStore) Sets() int {
	return m.sets
}

// WithGetError makes every Get fail with err.
func (m *MockStore) WithGetError(err error) *MockStore {
	m.getErr = err
	return m
}

// WithSetError makes every Set fail with err.
func (m *MockStore) WithSetError(err error) *MockStore {
	m.setErr = err
	return m
}

// WithDeleteError makes every Delete fail with err.
func (m *MockStore) WithDeleteError(err error) *MockStore {
	m.delErr = err
	return m
}

// WithData pre-populates a secret.
func (m *MockStore) WithData(service, key, value string) *MockStore {
	m.data[entry{service, key}] = value
	return m
}
