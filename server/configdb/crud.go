package configdb

import (
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
)

func (c *ConfigDB) GetZoneFromID(id int64) (*Zone, error) {
	zone := Zone{}
	if err := c.DB.First(&zone, id).Error; err != nil {
		return nil, err
	}
	return &zone, nil
}

func (c *ConfigDB) GetZones() ([]*Zone, error) {
	zones := []*Zone{}
	if err := c.DB.Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

// GetSeverityPolicy returns the class -> base severity table.
// Classes missing from the table fall back to 'low' at the call site.
func (c *ConfigDB) GetSeverityPolicy() (map[defs.ObjectClass]defs.Severity, error) {
	rows := []*AlertPolicy{}
	if err := c.DB.Find(&rows).Error; err != nil {
		return nil, err
	}
	policy := map[defs.ObjectClass]defs.Severity{}
	for _, row := range rows {
		policy[row.Class] = row.Severity
	}
	return policy, nil
}
