package catalog

import "github.com/dgkngk/uav-rental-app/internal/domain"

// CanWriteEquipment reports whether identity may create, change or delete equipment.
func CanWriteEquipment(identity domain.Identity) bool {
	return identity.IsAdmin()
}

func checkWrite(identity domain.Identity) error {
	if !identity.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if !CanWriteEquipment(identity) {
		return ErrForbidden
	}
	return nil
}
