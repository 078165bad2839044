// Package deviceimage builds the §6 decoder build artifacts (keys.bin,
// emergency.bin, public.bin) and packages them into a single-partition FAT32
// image, xz-compressed for distribution. Simplified from a multi-partition
// (boot/rootfs/app/data) firmware image builder down to one partition, since
// this decoder has no OS split to provision.
package deviceimage

import (
	"errors"
	"io"
	"os"

	"github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
	"github.com/diskfs/go-diskfs/partition/mbr"
	"github.com/samber/lo"
	"github.com/ulikunitz/xz"

	"github.com/satband/satcore/internal/chain"
	"github.com/satband/satcore/internal/devicekeys"
	"github.com/satband/satcore/internal/fingerprint"
	"github.com/satband/satcore/internal/secrets"
	"github.com/satband/satcore/internal/subscription"
)

var (
	ErrFailedToOpenImage       = errors.New("deviceimage: failed to open image")
	ErrFailedToPartitionImage  = errors.New("deviceimage: failed to partition image")
	ErrFailedToFormatPartition = errors.New("deviceimage: failed to format partition")
	ErrFailedToOpenFilesystem  = errors.New("deviceimage: failed to open filesystem")
	ErrFailedToWriteArtifact   = errors.New("deviceimage: failed to write artifact to image")
	ErrUnknownChannel          = errors.New("deviceimage: decoder channel list references unknown channel")
)

const (
	// VolumeLabel names the single FAT32 partition carried on every image.
	VolumeLabel = "SATCORE"
	// imageSizeBytes is generous for three small binary artifacts on FAT32.
	imageSizeBytes = 32 * 1024 * 1024
)

// Artifacts holds the in-memory §6 build artifacts for one decoder.
type Artifacts struct {
	Keys      []byte // concatenation of 32-byte per-channel seeds
	Emergency []byte // channel-0 subscription for [0, END_OF_TIME]
	Public    []byte // raw 32-byte Ed25519 public key
}

// BuildArtifacts derives keys.bin/emergency.bin/public.bin for decoderID from
// a generated secrets bundle, per §6.
func BuildArtifacts(c chain.Chain, b *secrets.Bundle, decoderID uint32) (*Artifacts, error) {
	keys := make([]byte, 0, len(b.Channels)*devicekeys.SealingKeySize)
	for _, ch := range b.Channels {
		seed := devicekeys.ChannelSeed(b.SystemSecret, decoderID, ch)
		keys = append(keys, seed[:]...)
	}

	roots, err := b.ChannelRoots(0)
	if err != nil {
		return nil, ErrUnknownChannel
	}
	emergency, err := subscription.Build(c, 0, 0, subscription.EndOfTime, roots.Forward, roots.Backward, b.SystemSecret, decoderID)
	if err != nil {
		return nil, err
	}

	return &Artifacts{
		Keys:      keys,
		Emergency: emergency,
		Public:    append([]byte(nil), b.Public...),
	}, nil
}

// WriteImage creates a fresh raw disk image at path containing a single
// FAT32 partition holding the three artifacts. Empty artifacts are skipped.
func WriteImage(path string, a *Artifacts) error {
	d, err := diskfs.Create(path, imageSizeBytes, diskfs.Raw, diskfs.SectorSizeDefault)
	if err != nil {
		return errors.Join(ErrFailedToOpenImage, err)
	}

	table := &mbr.Table{
		LogicalSectorSize:  512,
		PhysicalSectorSize: 512,
		Partitions: []*mbr.Partition{
			{
				Bootable: false,
				Type:     mbr.Fat32LBA,
				Start:    2048,
				Size:     uint32(imageSizeBytes/512) - 2048,
			},
		},
	}
	if err := d.Partition(table); err != nil {
		return errors.Join(ErrFailedToPartitionImage, err)
	}

	if _, err := d.CreateFilesystem(disk.FilesystemSpec{Partition: 1, FSType: filesystem.TypeFat32, VolumeLabel: VolumeLabel}); err != nil {
		return errors.Join(ErrFailedToFormatPartition, err)
	}

	fs, err := d.GetFilesystem(1)
	if err != nil {
		return errors.Join(ErrFailedToOpenFilesystem, err)
	}

	for _, f := range lo.Filter([]struct {
		name string
		data []byte
	}{
		{"/keys.bin", a.Keys},
		{"/emergency.bin", a.Emergency},
		{"/public.bin", a.Public},
	}, func(f struct {
		name string
		data []byte
	}, _ int) bool {
		return len(f.data) > 0
	}) {
		if err := writeArtifact(fs, f.name, f.data); err != nil {
			return errors.Join(ErrFailedToWriteArtifact, err)
		}
	}

	return nil
}

func writeArtifact(fs filesystem.FileSystem, name string, data []byte) error {
	out, err := fs.OpenFile(name, os.O_CREATE|os.O_RDWR|os.O_TRUNC)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = out.Write(data)
	return err
}

// PackageXZ compresses the image at imgPath into dstPath using xz, the same
// packaging format used for other shipped images, logging throughput via
// progressWriter as it goes.
func PackageXZ(imgPath, dstPath string) error {
	src, err := os.Open(imgPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	w, err := xz.NewWriter(newProgressWriter(dst, nil))
	if err != nil {
		return err
	}
	defer w.Close()

	_, err = io.Copy(w, src)
	return err
}

// Fingerprint renders a Base58Check identifier for a built image, derived
// from its public key (stable across rebuilds for the same deployment).
func Fingerprint(a *Artifacts) string {
	return fingerprint.Encode(fingerprint.ImagePrefix, a.Public)
}
