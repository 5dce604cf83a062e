package postgres

// -----------------------------------------------------------------------------
// PostgreSQL Deployment - Builder
// -----------------------------------------------------------------------------

// Builder configures a PostgreSQL Deployment before it gets rolled out to a
// cluster. The zero configuration deploys the image directly with generated
// credentials; templates, persistent storage and replication are opt-in.
type Builder struct {
	image             string
	version           string
	serviceName       string
	credentials       *Credentials
	templateFile      string
	templateParams    map[string]string
	persistentStorage bool
	volumeSize        string
}

// NewBuilder provides a new Builder for deploying the given candidate image.
func NewBuilder(image string) *Builder {
	return &Builder{
		image:       image,
		serviceName: DefaultServiceName,
		volumeSize:  DefaultVolumeSize,
	}
}

// WithVersion sets the image version tag templates receive.
func (b *Builder) WithVersion(version string) *Builder {
	b.version = version
	return b
}

// WithName overrides the service name the database is exposed under.
func (b *Builder) WithName(name string) *Builder {
	b.serviceName = name
	return b
}

// WithCredentials sets explicit database credentials instead of generated ones.
func (b *Builder) WithCredentials(credentials Credentials) *Builder {
	b.credentials = &credentials
	return b
}

// WithTemplate deploys from an OpenShift template file instead of the raw image.
func (b *Builder) WithTemplate(path string) *Builder {
	b.templateFile = path
	return b
}

// WithTemplateParameters adds extra template parameters on top of the
// standard set, later keys win.
func (b *Builder) WithTemplateParameters(params map[string]string) *Builder {
	if b.templateParams == nil {
		b.templateParams = make(map[string]string)
	}
	for k, v := range params {
		b.templateParams[k] = v
	}
	return b
}

// WithPersistentStorage backs the data directory with a persistent volume of
// the given capacity (e.g. "1Gi"), so data survives pod recreation.
func (b *Builder) WithPersistentStorage(size string) *Builder {
	b.persistentStorage = true
	if size != "" {
		b.volumeSize = size
	}
	return b
}

// Build materializes the Deployment, generating credentials when none were
// provided.
func (b *Builder) Build() (*Deployment, error) {
	credentials := Credentials{}
	if b.credentials != nil {
		credentials = *b.credentials
	} else {
		generated, err := NewCredentials()
		if err != nil {
			return nil, err
		}
		credentials = generated
	}
	if err := credentials.Validate(); err != nil {
		return nil, err
	}

	return &Deployment{
		image:             b.image,
		version:           b.version,
		serviceName:       b.serviceName,
		credentials:       credentials,
		templateFile:      b.templateFile,
		templateParams:    b.templateParams,
		persistentStorage: b.persistentStorage,
		volumeSize:        b.volumeSize,
	}, nil
}
